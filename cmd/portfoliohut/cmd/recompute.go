package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adithyabsk/portfoliohut/internal/app"
	"github.com/adithyabsk/portfoliohut/internal/validation"
)

var recomputeOwner string

// recomputeCmd rebuilds snapshots and daily returns from the ledger.
var recomputeCmd = &cobra.Command{
	Use:   "recompute [--owner <uuid>]",
	Short: "Rebuild snapshots and returns for one owner or all of them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if recomputeOwner != "" {
			if err := validation.ValidateUUID(recomputeOwner); err != nil {
				return err
			}
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			if recomputeOwner != "" {
				if err := a.Returns.Recompute(cmd.Context(), recomputeOwner); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recomputed %s\n", recomputeOwner)
				return nil
			}
			done, err := a.Returns.RecomputeAll(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d owners\n", done)
			return err
		})
	},
}

// refreshCmd pulls new daily bars for every held symbol and the benchmark.
var refreshCmd = &cobra.Command{
	Use:   "refresh-prices",
	Short: "Fetch new daily bars for every held symbol and the benchmark",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			refreshed, err := a.Market.RefreshAll(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d symbols\n", refreshed)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(refreshCmd)

	recomputeCmd.Flags().StringVar(&recomputeOwner, "owner", "", "Only recompute this owner.")
}
