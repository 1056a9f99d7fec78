package service

import (
	"context"
	"errors"
	"time"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/logger"
	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/valuation"
)

// Derived is the state rebuilt from a ledger after every change.
type Derived struct {
	Snapshot model.Snapshot
	Returns  []model.ReturnPoint
}

// Recomputer rebuilds derived state from an owner's full, ordered ledger.
// from is the earliest date touched by the change that triggered the rebuild;
// an incremental implementation may reuse cached state before it.
type Recomputer interface {
	Recompute(ctx context.Context, ownerID string, entries []model.LedgerEntry, from time.Time) (Derived, error)
}

// BarLoader returns the daily bars of a symbol.
type BarLoader interface {
	GetTickerBars(ctx context.Context, symbol string) ([]model.PriceBar, error)
}

// FullRecompute rebuilds the snapshot and the whole return series on every
// call and ignores from.
type FullRecompute struct {
	bars BarLoader
	loc  *time.Location
	now  func() time.Time
}

// NewFullRecompute creates a FullRecompute whose series ends on today's date
// in loc, the exchange time zone. A nil now uses time.Now.
func NewFullRecompute(bars BarLoader, loc *time.Location, now func() time.Time) *FullRecompute {
	if now == nil {
		now = time.Now
	}
	return &FullRecompute{bars: bars, loc: loc, now: now}
}

// Recompute checks the ledger invariants, then builds the snapshot and the
// daily return series.
//
// If any traded symbol has no market data the return series is empty and the
// problem is logged; the snapshot is still built. A broken ledger returns
// apperrors.ErrLedgerInconsistent.
func (r *FullRecompute) Recompute(ctx context.Context, ownerID string, entries []model.LedgerEntry, _ time.Time) (Derived, error) {
	log := logger.FromContext(ctx).With("owner", ownerID)

	if err := valuation.CheckPairing(entries); err != nil {
		log.Error("ledger invariant violated", "error", err)
		return Derived{}, err
	}

	derived := Derived{Snapshot: valuation.BuildSnapshot(ownerID, entries)}

	bars := make(map[string][]model.PriceBar)
	for _, e := range entries {
		if e.Kind != model.KindEquity {
			continue
		}
		if _, ok := bars[e.Symbol]; ok {
			continue
		}
		symbolBars, err := r.bars.GetTickerBars(ctx, e.Symbol)
		if err != nil {
			if errors.Is(err, apperrors.ErrMarketDataUnavailable) {
				log.Warn("market data unavailable, returns left empty", "symbol", e.Symbol, "error", err)
				return derived, nil
			}
			return Derived{}, err
		}
		bars[e.Symbol] = symbolBars
	}

	points, err := valuation.ComputeReturns(entries, bars, r.now().In(r.loc))
	if err != nil {
		if errors.Is(err, apperrors.ErrMarketDataUnavailable) {
			log.Warn("missing prices, returns left empty", "error", err)
			return derived, nil
		}
		return Derived{}, err
	}
	derived.Returns = points
	return derived, nil
}
