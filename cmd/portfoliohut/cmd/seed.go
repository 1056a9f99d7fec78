package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adithyabsk/portfoliohut/internal/app"
)

var seedCount int

// seedCmd creates demo profiles with a generated trading history.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo profiles with generated trades",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if seedCount < 1 {
			return fmt.Errorf("--count must be at least 1")
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			created, err := a.Demo.Seed(cmd.Context(), seedCount)
			if err != nil {
				return err
			}
			for _, p := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", p.Username, p.ID)
			}
			if len(created) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "demo profiles already exist")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedCount, "count", 5, "Number of demo profiles.")
}
