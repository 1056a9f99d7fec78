package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adithyabsk/portfoliohut/internal/api"
	"github.com/adithyabsk/portfoliohut/internal/app"
	"github.com/adithyabsk/portfoliohut/internal/config"
	"github.com/adithyabsk/portfoliohut/internal/logger"
	"github.com/adithyabsk/portfoliohut/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	ctx := context.Background()

	// Open database, migrate and build services
	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		logger.L.Error("failed to start application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	logger.L.Info("connected to database", "path", cfg.Database.Path, "version", version.Version)

	sched, err := a.Scheduler()
	if err != nil {
		logger.L.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start()

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(a.Services(), cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.L.Info("starting server", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.L.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("server forced to shutdown", "error", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.L.Warn("scheduled job still running at shutdown", "error", err)
	}

	logger.L.Info("server exited")
}
