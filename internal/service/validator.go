package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/calendar"
	"github.com/adithyabsk/portfoliohut/internal/model"
)

// ValidationError is a rejected ledger entry. Err is one of the apperrors
// sentinels, so callers can branch with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...), Err: err}
}

// BarSource looks up the daily bar of a symbol.
type BarSource interface {
	GetBarForDate(ctx context.Context, symbol string, date time.Time) (model.PriceBar, error)
}

// TransactionValidator gates new ledger entries. Each check is independent
// and evaluated as of the entry's own timestamp, so backdated entries are
// judged against the balances that existed at that moment.
type TransactionValidator struct {
	calendar calendar.Calendar
	bars     BarSource
	now      func() time.Time
}

// NewTransactionValidator creates a validator. A nil now uses time.Now.
func NewTransactionValidator(cal calendar.Calendar, bars BarSource, now func() time.Time) *TransactionValidator {
	if now == nil {
		now = time.Now
	}
	return &TransactionValidator{calendar: cal, bars: bars, now: now}
}

// CheckNotFuture rejects timestamps after the current time.
func (v *TransactionValidator) CheckNotFuture(t time.Time) error {
	if t.After(v.now()) {
		return invalid("occurredAt", apperrors.ErrFutureTimestamp,
			"%s is in the future", t.Format(time.RFC3339))
	}
	return nil
}

// CheckMarketHours rejects timestamps in the future or outside an exchange session.
func (v *TransactionValidator) CheckMarketHours(t time.Time) error {
	if err := v.CheckNotFuture(t); err != nil {
		return err
	}
	if !v.calendar.IsOpenAt(t) {
		return invalid("occurredAt", apperrors.ErrMarketClosed,
			"market was closed at %s", t.In(v.calendar.Location()).Format("2006-01-02 15:04"))
	}
	return nil
}

// CheckPriceRange rejects a price outside the day's [low, high].
func (v *TransactionValidator) CheckPriceRange(bar model.PriceBar, price decimal.Decimal) error {
	if price.LessThan(bar.Low) || price.GreaterThan(bar.High) {
		return invalid("price", apperrors.ErrPriceOutOfRange,
			"%s traded between %s and %s on %s, got %s",
			bar.Symbol, bar.Low, bar.High, bar.Date.Format("2006-01-02"), price)
	}
	return nil
}

// CheckSufficientCash rejects spending amount when the cash balance as of at
// is smaller.
func (v *TransactionValidator) CheckSufficientCash(ledger []model.LedgerEntry, at time.Time, amount decimal.Decimal) error {
	balance := CashBalanceAt(ledger, at)
	if balance.LessThan(amount) {
		return invalid("amount", apperrors.ErrInsufficientCash,
			"cash balance %s is less than %s", balance.StringFixed(2), amount.StringFixed(2))
	}
	return nil
}

// CheckSufficientShares rejects selling more shares than held as of at.
func (v *TransactionValidator) CheckSufficientShares(ledger []model.LedgerEntry, symbol string, at time.Time, qty int64) error {
	held := SharesAt(ledger, symbol, at)
	if held < qty {
		return invalid("quantity", apperrors.ErrInsufficientShares,
			"holding %d %s, cannot sell %d", held, symbol, qty)
	}
	return nil
}

// CheckDuplicate rejects an entry of the same kind and symbol at the exact
// same timestamp as an existing one.
func (v *TransactionValidator) CheckDuplicate(ledger []model.LedgerEntry, candidate model.LedgerEntry) error {
	for _, e := range ledger {
		if e.Kind == candidate.Kind && e.Symbol == candidate.Symbol && e.OccurredAt.Equal(candidate.OccurredAt) {
			return invalid("occurredAt", apperrors.ErrDuplicateEntry,
				"an entry for %s already exists at %s", candidate.Symbol, candidate.OccurredAt.Format(time.RFC3339))
		}
	}
	return nil
}

// ValidateTrade runs every check that applies to an equity trade against the
// given ledger, stopping at the first failure.
func (v *TransactionValidator) ValidateTrade(ctx context.Context, ledger []model.LedgerEntry, trade EquityTrade) error {
	if err := trade.check(); err != nil {
		return err
	}
	if err := v.CheckNotFuture(trade.OccurredAt); err != nil {
		return err
	}
	candidate := model.LedgerEntry{Kind: model.KindEquity, Symbol: trade.Symbol, OccurredAt: trade.OccurredAt}
	if err := v.CheckDuplicate(ledger, candidate); err != nil {
		return err
	}
	if err := v.CheckMarketHours(trade.OccurredAt); err != nil {
		return err
	}

	bar, err := v.bars.GetBarForDate(ctx, trade.Symbol, trade.OccurredAt)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPriceBarNotFound):
			return invalid("occurredAt", apperrors.ErrMarketClosed,
				"%s did not trade on %s", trade.Symbol, model.DateOf(trade.OccurredAt).Format("2006-01-02"))
		case errors.Is(err, apperrors.ErrMarketDataUnavailable):
			return invalid("symbol", err, "no market data for %s", trade.Symbol)
		default:
			return err
		}
	}
	if err := v.CheckPriceRange(bar, trade.Price); err != nil {
		return err
	}

	switch trade.Side {
	case model.SideBuy:
		return v.CheckSufficientCash(ledger, trade.OccurredAt, trade.Notional())
	case model.SideSell:
		return v.CheckSufficientShares(ledger, trade.Symbol, trade.OccurredAt, trade.Quantity)
	}
	return invalid("side", apperrors.ErrInvalidSide, "unknown side %q", trade.Side)
}

// ValidateCash runs the checks that apply to a deposit or withdrawal.
func (v *TransactionValidator) ValidateCash(ledger []model.LedgerEntry, tx CashTransaction) error {
	if err := tx.check(); err != nil {
		return err
	}
	if err := v.CheckNotFuture(tx.OccurredAt); err != nil {
		return err
	}
	candidate := model.LedgerEntry{Kind: model.KindExternalCash, Symbol: model.CashSymbol, OccurredAt: tx.OccurredAt}
	if err := v.CheckDuplicate(ledger, candidate); err != nil {
		return err
	}

	switch tx.Side {
	case model.SideDeposit:
		return nil
	case model.SideWithdraw:
		return v.CheckSufficientCash(ledger, tx.OccurredAt, tx.Amount)
	}
	return invalid("side", apperrors.ErrInvalidSide, "unknown side %q", tx.Side)
}

// CashBalanceAt sums every cash entry at or before at.
func CashBalanceAt(ledger []model.LedgerEntry, at time.Time) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range ledger {
		if e.Kind.IsCash() && !e.OccurredAt.After(at) {
			balance = balance.Add(e.Notional())
		}
	}
	return balance
}

// SharesAt sums the shares of symbol traded at or before at.
func SharesAt(ledger []model.LedgerEntry, symbol string, at time.Time) int64 {
	var shares int64
	for _, e := range ledger {
		if e.Kind == model.KindEquity && e.Symbol == symbol && !e.OccurredAt.After(at) {
			shares += e.Quantity
		}
	}
	return shares
}
