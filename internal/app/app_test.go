package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/adithyabsk/portfoliohut/internal/app"
	"github.com/adithyabsk/portfoliohut/internal/config"
	"github.com/adithyabsk/portfoliohut/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database:  config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "portfoliohut.db")},
		Market:    config.MarketConfig{Timezone: "America/New_York", BenchmarkSymbol: "^GSPC"},
		Scheduler: config.SchedulerConfig{RefreshSchedule: "30 17 * * 1-5", RefreshConcurrency: 2},
	}
}

// TestNew tests building the application graph against a fresh database file.
//
// WHY: The server and the CLI both start through New. A missing migration or
// a service left unwired would only show up at runtime otherwise.
func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("migrates and wires every service", func(t *testing.T) {
		// Setup
		cfg := testConfig(t)
		mock := testutil.NewMockMarketDataProvider()

		// Execute
		a, err := app.New(ctx, cfg, app.Options{Provider: mock, Now: testutil.FixedClock(testutil.DefaultNow)})

		// Assert
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}
		defer a.Close()

		if err := a.System.CheckHealth(); err != nil {
			t.Errorf("CheckHealth() returned unexpected error: %v", err)
		}
		info, err := a.System.CheckVersion(ctx)
		if err != nil {
			t.Fatalf("CheckVersion() returned unexpected error: %v", err)
		}
		if info.MigrationNeeded {
			t.Error("Expected no pending migrations after New")
		}

		svc := a.Services()
		if svc.Ledger == nil || svc.Market == nil || svc.Ranking == nil || svc.Import == nil {
			t.Errorf("Expected every HTTP dependency to be set, got %+v", svc)
		}
	})

	t.Run("reopening an existing database applies nothing", func(t *testing.T) {
		// Setup
		cfg := testConfig(t)
		first, err := app.New(ctx, cfg, app.Options{Provider: testutil.NewMockMarketDataProvider()})
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}
		testutil.CreateProfile(t, first.DB, "kept")
		first.Close()

		// Execute
		second, err := app.New(ctx, cfg, app.Options{Provider: testutil.NewMockMarketDataProvider()})

		// Assert
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}
		defer second.Close()
		testutil.AssertRowCount(t, second.DB, "profile", 1)
	})

	t.Run("invalid schedule fails the scheduler", func(t *testing.T) {
		// Setup
		cfg := testConfig(t)
		cfg.Scheduler.RefreshSchedule = "whenever"
		a, err := app.New(ctx, cfg, app.Options{Provider: testutil.NewMockMarketDataProvider()})
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}
		defer a.Close()

		// Execute
		_, err = a.Scheduler()

		// Assert
		if err == nil {
			t.Error("Expected an error for an invalid schedule")
		}
	})

	t.Run("invalid holiday is rejected", func(t *testing.T) {
		// Setup
		cfg := testConfig(t)
		cfg.Market.Holidays = []string{"July 4th"}

		// Execute
		_, err := app.New(ctx, cfg, app.Options{Provider: testutil.NewMockMarketDataProvider()})

		// Assert
		if err == nil {
			t.Error("Expected an error for an invalid holiday")
		}
	})
}
