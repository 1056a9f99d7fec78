package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/adithyabsk/portfoliohut/internal/api/handlers"
	custommiddleware "github.com/adithyabsk/portfoliohut/internal/api/middleware"
	"github.com/adithyabsk/portfoliohut/internal/config"
	"github.com/adithyabsk/portfoliohut/internal/logger"
	"github.com/adithyabsk/portfoliohut/internal/service"
)

// Services are the dependencies of the HTTP layer.
type Services struct {
	System    *service.SystemService
	Profiles  *service.ProfileService
	Ledger    *service.LedgerService
	Import    *service.ImportService
	Portfolio *service.PortfolioService
	Returns   *service.ReturnsService
	Ranking   *service.RankingService
	Market    *service.MarketDataService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// Writes require the shared key unless none is configured.
	writeGuard := func(next http.Handler) http.Handler { return next }
	if cfg.Auth.InternalAPIKey != "" {
		writeGuard = custommiddleware.APIKeyMiddleware(cfg.Auth.InternalAPIKey, cfg.Auth.TimeTokenTTL)
	} else {
		logger.L.Warn("INTERNAL_API_KEY is not set, write endpoints are unauthenticated")
	}

	systemHandler := handlers.NewSystemHandler(svc.System)
	profileHandler := handlers.NewProfileHandler(svc.Profiles)
	ledgerHandler := handlers.NewLedgerHandler(svc.Ledger, svc.Import)
	portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio)
	returnsHandler := handlers.NewReturnsHandler(svc.Returns)
	leaderboardHandler := handlers.NewLeaderboardHandler(svc.Ranking)
	marketHandler := handlers.NewMarketHandler(svc.Market)

	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/profile", func(r chi.Router) {
			r.With(writeGuard).Post("/", profileHandler.CreateProfile)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", profileHandler.GetProfile)

				r.Group(func(r chi.Router) {
					r.Use(writeGuard)
					r.Post("/trade", ledgerHandler.RecordTrade)
					r.Post("/cash", ledgerHandler.RecordCash)
					r.Post("/bulk", ledgerHandler.RecordBulk)
					r.Post("/import", ledgerHandler.ImportCSV)
				})

				r.Get("/ledger", ledgerHandler.Ledger)
				r.Get("/snapshot", portfolioHandler.Snapshot)
				r.Get("/portfolio", portfolioHandler.Details)
				r.Get("/returns", returnsHandler.Returns)
				r.Get("/returns/latest", returnsHandler.Latest)
			})
		})

		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/", leaderboardHandler.Owners)
			r.Get("/public", leaderboardHandler.Public)
		})

		r.Route("/market", func(r chi.Router) {
			r.Get("/benchmark", returnsHandler.Benchmark)
			r.Get("/{symbol}/bars", marketHandler.Bars)
			r.Get("/{symbol}/info", marketHandler.Info)
		})
	})

	return r
}
