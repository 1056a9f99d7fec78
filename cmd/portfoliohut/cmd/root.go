// Package cmd implements the portfoliohut maintenance commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adithyabsk/portfoliohut/internal/app"
	"github.com/adithyabsk/portfoliohut/internal/config"
	"github.com/adithyabsk/portfoliohut/internal/logger"
	"github.com/adithyabsk/portfoliohut/internal/version"
)

var dbPath string
var logLevel string

var cfg *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "portfoliohut",
	Short:         "Maintain the PortfolioHut ledger, prices and returns",
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if dbPath != "" {
			loaded.Database.Path = dbPath
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		logger.Init(loaded.LogLevel)
		cfg = loaded
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file (overrides DB_PATH).")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL).")
}

// withApp opens the application graph, runs fn and closes it.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
