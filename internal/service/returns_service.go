package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/logger"
	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/repository"
	"github.com/adithyabsk/portfoliohut/internal/valuation"
)

// ReturnsService reads the cached daily return series and rebuilds it on
// demand.
type ReturnsService struct {
	db           *sql.DB
	ledgerRepo   *repository.LedgerRepository
	snapshotRepo *repository.SnapshotRepository
	returnsRepo  *repository.ReturnsRepository
	profileRepo  *repository.ProfileRepository
	recomputer   Recomputer
	locks        *OwnerLocks
	bars         BarLoader
	invalidator  Invalidator
	benchmark    string
	concurrency  int
}

// NewReturnsService creates a new ReturnsService with the provided dependencies.
func NewReturnsService(
	db *sql.DB,
	ledgerRepo *repository.LedgerRepository,
	snapshotRepo *repository.SnapshotRepository,
	returnsRepo *repository.ReturnsRepository,
	profileRepo *repository.ProfileRepository,
	recomputer Recomputer,
	locks *OwnerLocks,
	bars BarLoader,
	invalidator Invalidator,
	benchmark string,
	concurrency int,
) *ReturnsService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ReturnsService{
		db:           db,
		ledgerRepo:   ledgerRepo,
		snapshotRepo: snapshotRepo,
		returnsRepo:  returnsRepo,
		profileRepo:  profileRepo,
		recomputer:   recomputer,
		locks:        locks,
		bars:         bars,
		invalidator:  invalidator,
		benchmark:    benchmark,
		concurrency:  concurrency,
	}
}

// GetMostRecentReturn returns the owner's cumulative return to date as a
// fraction. ok is false when the owner has no return yet.
func (s *ReturnsService) GetMostRecentReturn(ctx context.Context, ownerID string) (value float64, ok bool, err error) {
	latest, err := s.GetLatestReturn(ctx, ownerID)
	if err != nil {
		return 0, false, err
	}
	if latest.ReturnPct == nil {
		return 0, false, nil
	}
	return *latest.ReturnPct, true, nil
}

// GetLatestReturn is GetMostRecentReturn with the date of the last point.
func (s *ReturnsService) GetLatestReturn(ctx context.Context, ownerID string) (model.LatestReturn, error) {
	points, err := s.points(ctx, ownerID)
	if err != nil {
		return model.LatestReturn{}, err
	}
	latest := model.LatestReturn{OwnerID: ownerID}
	if value, date, ok := valuation.MostRecent(points); ok {
		latest.ReturnPct = &value
		latest.AsOf = &date
	}
	return latest, nil
}

// GetCumulativeReturns returns the daily series with its running cumulative return.
func (s *ReturnsService) GetCumulativeReturns(ctx context.Context, ownerID string) ([]model.CumulativePoint, error) {
	points, err := s.points(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return valuation.Cumulative(points), nil
}

func (s *ReturnsService) points(ctx context.Context, ownerID string) ([]model.ReturnPoint, error) {
	if _, err := s.profileRepo.GetProfile(ctx, ownerID); err != nil {
		return nil, err
	}
	points, err := s.returnsRepo.GetReturnPoints(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveReturns, err)
	}
	return points, nil
}

// Recompute rebuilds the owner's snapshot and return series from the ledger.
// The scheduler calls it after new prices arrive.
func (s *ReturnsService) Recompute(ctx context.Context, ownerID string) error {
	unlock := s.locks.Lock(ownerID)
	defer unlock()

	entries, err := s.ledgerRepo.GetEntries(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveLedger, err)
	}

	var from time.Time
	if len(entries) > 0 {
		from = entries[0].Date()
	}
	derived, err := s.recomputer.Recompute(ctx, ownerID, entries, from)
	if err != nil {
		return err
	}
	if err := storeDerived(ctx, s.db, s.snapshotRepo, s.returnsRepo, ownerID, derived, nil); err != nil {
		return err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}

	logger.FromContext(ctx).Debug("recomputed returns", "owner", ownerID, "points", len(derived.Returns))
	return nil
}

// RecomputeAll recomputes every owner with at least one ledger entry and
// returns how many succeeded. Failures are collected, not fatal.
func (s *ReturnsService) RecomputeAll(ctx context.Context) (int, error) {
	owners, err := s.ledgerRepo.GetOwnerIDs(ctx)
	if err != nil {
		return 0, err
	}

	var (
		mu   sync.Mutex
		errs []error
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, owner := range owners {
		g.Go(func() error {
			err := s.Recompute(gctx, owner)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				errs = append(errs, fmt.Errorf("owner %s: %w", owner, err))
				return nil
			}
			done++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return done, err
	}

	logger.FromContext(ctx).Info("recomputed all owners", "owners", len(owners), "succeeded", done, "failed", len(errs))
	return done, errors.Join(errs...)
}

// GetBenchmarkReturns returns the cumulative return of the benchmark index
// from the first trading day on or after from.
func (s *ReturnsService) GetBenchmarkReturns(ctx context.Context, from time.Time) ([]model.CumulativePoint, error) {
	bars, err := s.bars.GetTickerBars(ctx, s.benchmark)
	if err != nil {
		return nil, err
	}
	start := model.DateOf(from)
	window := make([]model.PriceBar, 0, len(bars))
	for _, b := range bars {
		if !b.Date.Before(start) {
			window = append(window, b)
		}
	}
	return valuation.Cumulative(valuation.DailyReturnsFromCloses(window)), nil
}
