package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adithyabsk/portfoliohut/internal/app"
	"github.com/adithyabsk/portfoliohut/internal/database"
)

// migrateCmd applies pending schema migrations. Opening the app migrates, so
// this only reports the resulting version.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			current, pending, err := database.SchemaVersion(cmd.Context(), a.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (pending: %t)\n", current, pending)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
