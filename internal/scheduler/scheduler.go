// Package scheduler runs the after-close market data refresh.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/adithyabsk/portfoliohut/internal/logger"
)

// Refresher brings every tracked symbol's bars up to date.
type Refresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

// Recomputer rebuilds snapshots and returns for every owner.
type Recomputer interface {
	RecomputeAll(ctx context.Context) (int, error)
}

// Scheduler refreshes prices and then recomputes returns on a cron schedule.
// A run that is still going when the next one is due is skipped.
type Scheduler struct {
	cron       *cron.Cron
	refresher  Refresher
	recomputer Recomputer
	timeout    time.Duration
	log        *slog.Logger
}

// New creates a Scheduler firing on spec (standard five-field cron syntax)
// in loc. timeout bounds a single run; zero means 30 minutes.
func New(spec string, loc *time.Location, timeout time.Duration, refresher Refresher, recomputer Recomputer) (*Scheduler, error) {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	log := logger.L.With("component", "scheduler")
	cl := cronLogger{log: log}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		refresher:  refresher,
		recomputer: recomputer,
		timeout:    timeout,
		log:        log,
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "next", s.Next())
}

// Stop halts the schedule and waits for a running job up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns the next time the job fires, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		s.log.Error("scheduled refresh failed", "error", err)
	}
}

// RunOnce refreshes every symbol and then recomputes every owner. A partial
// refresh failure still recomputes, so owners whose symbols did refresh are
// brought up to date.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	symbols, refreshErr := s.refresher.RefreshAll(ctx)
	if refreshErr != nil {
		s.log.Warn("price refresh incomplete", "symbols", symbols, "error", refreshErr)
	}
	if err := ctx.Err(); err != nil {
		return errors.Join(refreshErr, err)
	}

	owners, recomputeErr := s.recomputer.RecomputeAll(ctx)

	s.log.Info("scheduled refresh finished",
		"symbols", symbols,
		"owners", owners,
		"duration", time.Since(start).String(),
	)
	return errors.Join(refreshErr, recomputeErr)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
