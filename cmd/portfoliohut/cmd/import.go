package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adithyabsk/portfoliohut/internal/app"
	"github.com/adithyabsk/portfoliohut/internal/validation"
)

var importOwner string
var importFile string

// importCmd records a CSV file of trades and cash movements for one owner.
var importCmd = &cobra.Command{
	Use:   "import --owner <uuid> --file <csv-file>",
	Short: "Import a CSV of trades and cash movements",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validation.ValidateUUID(importOwner); err != nil {
			return err
		}
		f, err := os.Open(importFile)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", importFile, err)
		}
		defer f.Close()

		return withApp(cmd.Context(), func(a *app.App) error {
			result, err := a.Import.Import(cmd.Context(), importOwner, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %d rows (%d ledger entries)\n", result.Recorded, len(result.Entries))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importOwner, "owner", "", "Owner profile id.")
	importCmd.Flags().StringVar(&importFile, "file", "", "CSV file in the native or broker export layout.")
	_ = importCmd.MarkFlagRequired("owner")
	_ = importCmd.MarkFlagRequired("file")
}
