// Package app wires configuration, storage and services into one graph shared
// by the HTTP server and the command line tool.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adithyabsk/portfoliohut/internal/api"
	"github.com/adithyabsk/portfoliohut/internal/calendar"
	"github.com/adithyabsk/portfoliohut/internal/config"
	"github.com/adithyabsk/portfoliohut/internal/database"
	"github.com/adithyabsk/portfoliohut/internal/logger"
	"github.com/adithyabsk/portfoliohut/internal/repository"
	"github.com/adithyabsk/portfoliohut/internal/scheduler"
	"github.com/adithyabsk/portfoliohut/internal/service"
	"github.com/adithyabsk/portfoliohut/internal/yahoo"
)

// App holds the database handle and every service built on it.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Calendar *calendar.Exchange

	System    *service.SystemService
	Profiles  *service.ProfileService
	Ledger    *service.LedgerService
	Import    *service.ImportService
	Portfolio *service.PortfolioService
	Returns   *service.ReturnsService
	Ranking   *service.RankingService
	Market    *service.MarketDataService
	Demo      *service.DemoService
}

// Options adjusts how New builds the graph. Zero values use the live
// provider and the wall clock.
type Options struct {
	Provider service.MarketDataProvider
	Now      func() time.Time
}

// New opens the database, applies pending migrations and builds the services.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	applied, err := database.Migrate(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if applied > 0 {
		logger.L.Info("applied migrations", "count", applied)
	}

	cal, err := calendar.NewNYSE(cfg.Market.Timezone, cfg.Market.Holidays)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build market calendar: %w", err)
	}

	provider := opts.Provider
	if provider == nil {
		provider = yahoo.NewFinanceClient(cfg.Yahoo)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	a := &App{Config: cfg, DB: db, Calendar: cal}
	a.build(provider, now)
	return a, nil
}

func (a *App) build(provider service.MarketDataProvider, now func() time.Time) {
	cfg := a.Config

	// Create repositories
	ledgerRepo := repository.NewLedgerRepository(a.DB)
	snapshotRepo := repository.NewSnapshotRepository(a.DB)
	returnsRepo := repository.NewReturnsRepository(a.DB)
	profileRepo := repository.NewProfileRepository(a.DB)

	// Create services
	a.Market = service.NewMarketDataService(
		repository.NewPriceRepository(a.DB),
		repository.NewCompanyRepository(a.DB),
		ledgerRepo,
		provider,
		a.Calendar,
		service.MarketDataOptions{
			CacheTTL:           cfg.Cache.TTL,
			RefreshConcurrency: cfg.Scheduler.RefreshConcurrency,
			BenchmarkSymbol:    cfg.Market.BenchmarkSymbol,
			Now:                now,
		},
	)
	validator := service.NewTransactionValidator(a.Calendar, a.Market, now)
	recomputer := service.NewFullRecompute(a.Market, a.Calendar.Location(), now)
	locks := service.NewOwnerLocks()

	a.Ranking = service.NewRankingService(profileRepo, returnsRepo, cfg.Cache.TTL)
	a.Ledger = service.NewLedgerService(a.DB, ledgerRepo, snapshotRepo, returnsRepo, profileRepo, validator, recomputer, locks, a.Ranking)
	a.Returns = service.NewReturnsService(
		a.DB, ledgerRepo, snapshotRepo, returnsRepo, profileRepo,
		recomputer, locks, a.Market, a.Ranking,
		cfg.Market.BenchmarkSymbol, cfg.Scheduler.RefreshConcurrency,
	)
	a.Profiles = service.NewProfileService(profileRepo, a.Ranking)
	a.Portfolio = service.NewPortfolioService(snapshotRepo, profileRepo, a.Market, a.Market)
	a.Import = service.NewImportService(a.Ledger, a.Calendar)
	a.Demo = service.NewDemoService(a.Profiles, a.Ledger, a.Market, a.Calendar)
	a.System = service.NewSystemService(a.DB, cfg.Market.BenchmarkSymbol)
}

// Services returns the dependencies of the HTTP layer.
func (a *App) Services() api.Services {
	return api.Services{
		System:    a.System,
		Profiles:  a.Profiles,
		Ledger:    a.Ledger,
		Import:    a.Import,
		Portfolio: a.Portfolio,
		Returns:   a.Returns,
		Ranking:   a.Ranking,
		Market:    a.Market,
	}
}

// Scheduler builds the after-close refresh job from the configured schedule.
func (a *App) Scheduler() (*scheduler.Scheduler, error) {
	return scheduler.New(
		a.Config.Scheduler.RefreshSchedule,
		a.Calendar.Location(),
		0,
		a.Market,
		a.Returns,
	)
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}
