// Package valuation holds the pure portfolio computations: the snapshot
// builder, the ledger consistency check and the time-weighted returns engine.
// Nothing here touches storage or the network; callers pass materialized
// ledger entries and price bars in.
package valuation

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/model"
)

// averageCostPlaces is the rounding applied to weighted-average cost.
const averageCostPlaces = 6

// BuildSnapshot derives the current holdings and net cash of one owner.
//
// Average cost is Σ(quantity × unit price) / Σ(quantity) over every equity
// trade of a symbol, sells included. It is a running weighted average, not
// lot-level cost basis. Symbols whose quantities net to zero are left out.
// The cash row is always present, with symbol model.CashSymbol, quantity +1
// or -1 for the sign of the net cash and the absolute net cash as its cost.
// Holdings are returned with the cash row first, then by symbol.
func BuildSnapshot(ownerID string, entries []model.LedgerEntry) model.Snapshot {
	type position struct {
		quantity int64
		notional decimal.Decimal
	}
	positions := make(map[string]*position)
	cash := decimal.Zero

	for _, e := range entries {
		switch e.Kind {
		case model.KindEquity:
			p, ok := positions[e.Symbol]
			if !ok {
				p = &position{notional: decimal.Zero}
				positions[e.Symbol] = p
			}
			p.quantity += e.Quantity
			p.notional = p.notional.Add(e.Notional())
		case model.KindExternalCash, model.KindInternalCash:
			cash = cash.Add(e.Notional())
		}
	}

	symbols := make([]string, 0, len(positions))
	for s, p := range positions {
		if p.quantity != 0 {
			symbols = append(symbols, s)
		}
	}
	sort.Strings(symbols)

	cashQty := int64(1)
	if cash.IsNegative() {
		cashQty = -1
	}
	holdings := make([]model.Holding, 0, len(symbols)+1)
	holdings = append(holdings, model.Holding{
		Symbol:      model.CashSymbol,
		Quantity:    cashQty,
		AverageCost: cash.Abs(),
	})
	for _, s := range symbols {
		p := positions[s]
		holdings = append(holdings, model.Holding{
			Symbol:      s,
			Quantity:    p.quantity,
			AverageCost: p.notional.DivRound(decimal.NewFromInt(p.quantity), averageCostPlaces),
		})
	}

	return model.Snapshot{OwnerID: ownerID, Holdings: holdings}
}

// CheckPairing verifies the ledger invariants of one owner's entries:
// quantities are non-zero, prices positive, cash entries carry the cash
// symbol, and every equity entry has exactly one internal cash entry with the
// same owner and timestamp whose notional is the exact opposite.
//
// Any violation wraps apperrors.ErrLedgerInconsistent.
func CheckPairing(entries []model.LedgerEntry) error {
	equities := make(map[string]model.LedgerEntry)
	pairs := make(map[string][]model.LedgerEntry)

	for _, e := range entries {
		if e.Quantity == 0 {
			return fmt.Errorf("%w: entry %s has zero quantity", apperrors.ErrLedgerInconsistent, e.ID)
		}
		if !e.UnitPrice.IsPositive() {
			return fmt.Errorf("%w: entry %s has non-positive price %s", apperrors.ErrLedgerInconsistent, e.ID, e.UnitPrice)
		}
		switch e.Kind {
		case model.KindEquity:
			if e.Symbol == model.CashSymbol || e.Symbol == "" {
				return fmt.Errorf("%w: equity entry %s has no symbol", apperrors.ErrLedgerInconsistent, e.ID)
			}
			equities[e.ID] = e
		case model.KindInternalCash:
			if e.PairID == "" {
				return fmt.Errorf("%w: internal cash entry %s is unpaired", apperrors.ErrLedgerInconsistent, e.ID)
			}
			pairs[e.PairID] = append(pairs[e.PairID], e)
			fallthrough
		case model.KindExternalCash:
			if e.Symbol != model.CashSymbol {
				return fmt.Errorf("%w: cash entry %s has symbol %q", apperrors.ErrLedgerInconsistent, e.ID, e.Symbol)
			}
		default:
			return fmt.Errorf("%w: entry %s has kind %q", apperrors.ErrLedgerInconsistent, e.ID, e.Kind)
		}
	}

	for id, eq := range equities {
		legs := pairs[id]
		if len(legs) != 1 {
			return fmt.Errorf("%w: equity entry %s has %d internal cash entries", apperrors.ErrLedgerInconsistent, id, len(legs))
		}
		leg := legs[0]
		if leg.OwnerID != eq.OwnerID || !leg.OccurredAt.Equal(eq.OccurredAt) {
			return fmt.Errorf("%w: internal cash entry %s does not match its trade", apperrors.ErrLedgerInconsistent, leg.ID)
		}
		if !leg.Notional().Equal(eq.Notional().Neg()) {
			return fmt.Errorf("%w: internal cash entry %s notional %s does not offset %s",
				apperrors.ErrLedgerInconsistent, leg.ID, leg.Notional(), eq.Notional())
		}
	}
	for pairID, legs := range pairs {
		if _, ok := equities[pairID]; !ok {
			return fmt.Errorf("%w: internal cash entry %s references missing trade %s",
				apperrors.ErrLedgerInconsistent, legs[0].ID, pairID)
		}
	}

	return nil
}
