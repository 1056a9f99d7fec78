package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/logger"
	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/repository"
)

// EquityTrade is a buy or sell of whole shares at a price.
type EquityTrade struct {
	OwnerID    string
	Symbol     string
	OccurredAt time.Time
	Side       model.TradeSide
	Quantity   int64
	Price      decimal.Decimal
}

// Notional is price × quantity.
func (t EquityTrade) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}

func (t EquityTrade) check() error {
	switch t.Side {
	case model.SideBuy, model.SideSell:
	default:
		return invalid("side", apperrors.ErrInvalidSide, "unknown side %q", t.Side)
	}
	if t.Quantity <= 0 {
		return invalid("quantity", apperrors.ErrInvalidQuantity, "quantity must be positive, got %d", t.Quantity)
	}
	if !t.Price.IsPositive() {
		return invalid("price", apperrors.ErrInvalidPrice, "price must be positive, got %s", t.Price)
	}
	if t.Symbol == "" || t.Symbol == model.CashSymbol {
		return invalid("symbol", apperrors.ErrSymbolNotFound, "symbol is required")
	}
	return nil
}

// entries returns the EQUITY entry and its INTERNAL_CASH counterpart.
func (t EquityTrade) entries() []model.LedgerEntry {
	sign := t.Side.Sign()
	equity := model.LedgerEntry{
		ID:         uuid.New().String(),
		OwnerID:    t.OwnerID,
		Kind:       model.KindEquity,
		Symbol:     t.Symbol,
		OccurredAt: t.OccurredAt,
		Quantity:   sign * t.Quantity,
		UnitPrice:  t.Price,
	}
	cash := model.LedgerEntry{
		ID:         uuid.New().String(),
		OwnerID:    t.OwnerID,
		Kind:       model.KindInternalCash,
		Symbol:     model.CashSymbol,
		OccurredAt: t.OccurredAt,
		Quantity:   -sign,
		UnitPrice:  t.Notional(),
		PairID:     equity.ID,
	}
	return []model.LedgerEntry{equity, cash}
}

// CashTransaction is a deposit or withdrawal of outside money.
type CashTransaction struct {
	OwnerID    string
	OccurredAt time.Time
	Side       model.CashSide
	Amount     decimal.Decimal
}

func (c CashTransaction) check() error {
	switch c.Side {
	case model.SideDeposit, model.SideWithdraw:
	default:
		return invalid("side", apperrors.ErrInvalidSide, "unknown side %q", c.Side)
	}
	if !c.Amount.IsPositive() {
		return invalid("amount", apperrors.ErrInvalidPrice, "amount must be positive, got %s", c.Amount)
	}
	return nil
}

func (c CashTransaction) entries() []model.LedgerEntry {
	return []model.LedgerEntry{{
		ID:         uuid.New().String(),
		OwnerID:    c.OwnerID,
		Kind:       model.KindExternalCash,
		Symbol:     model.CashSymbol,
		OccurredAt: c.OccurredAt,
		Quantity:   c.Side.Sign(),
		UnitPrice:  c.Amount,
	}}
}

// BulkRow is one row of a bulk upload: a trade when Trade is set, otherwise a
// cash movement.
type BulkRow struct {
	Trade *EquityTrade
	Cash  *CashTransaction
}

func (r BulkRow) occurredAt() time.Time {
	if r.Trade != nil {
		return r.Trade.OccurredAt
	}
	if r.Cash != nil {
		return r.Cash.OccurredAt
	}
	return time.Time{}
}

// RowError reports the failing row of a bulk upload. Row is 1-based and
// counts rows in the order they were submitted.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// BulkResult summarizes a committed bulk upload.
type BulkResult struct {
	Recorded int                 `json:"recorded"`
	Entries  []model.LedgerEntry `json:"entries"`
}

// Invalidator drops cached views that depend on returns.
type Invalidator interface {
	Invalidate()
}

// LedgerService records ledger entries and keeps the derived snapshot and
// return series of each owner in step with its ledger.
//
// Every write for one owner runs under that owner's lock: the ledger is read,
// the candidate validated and derived state computed, then the new entries
// and the derived state are committed in a single transaction.
type LedgerService struct {
	db           *sql.DB
	ledgerRepo   *repository.LedgerRepository
	snapshotRepo *repository.SnapshotRepository
	returnsRepo  *repository.ReturnsRepository
	profileRepo  *repository.ProfileRepository
	validator    *TransactionValidator
	recomputer   Recomputer
	locks        *OwnerLocks
	invalidator  Invalidator
	loc          *time.Location
}

// NewLedgerService creates a new LedgerService with the provided dependencies.
func NewLedgerService(
	db *sql.DB,
	ledgerRepo *repository.LedgerRepository,
	snapshotRepo *repository.SnapshotRepository,
	returnsRepo *repository.ReturnsRepository,
	profileRepo *repository.ProfileRepository,
	validator *TransactionValidator,
	recomputer Recomputer,
	locks *OwnerLocks,
	invalidator Invalidator,
) *LedgerService {
	return &LedgerService{
		db:           db,
		ledgerRepo:   ledgerRepo,
		snapshotRepo: snapshotRepo,
		returnsRepo:  returnsRepo,
		profileRepo:  profileRepo,
		validator:    validator,
		recomputer:   recomputer,
		locks:        locks,
		invalidator:  invalidator,
		loc:          validator.calendar.Location(),
	}
}

// Location is the exchange time zone in which local timestamps are read.
func (s *LedgerService) Location() *time.Location {
	return s.loc
}

// RecordEquityTrade validates a trade and appends its EQUITY entry together
// with the paired INTERNAL_CASH entry. Both entries are returned.
func (s *LedgerService) RecordEquityTrade(ctx context.Context, trade EquityTrade) ([]model.LedgerEntry, error) {
	trade = s.normalizeTrade(trade)
	if err := trade.check(); err != nil {
		return nil, err
	}
	if _, err := s.profileRepo.GetProfile(ctx, trade.OwnerID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(trade.OwnerID)
	defer unlock()

	ledger, err := s.ledgerRepo.GetEntries(ctx, trade.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveLedger, err)
	}
	if err := s.validator.ValidateTrade(ctx, ledger, trade); err != nil {
		return nil, err
	}

	entries := trade.entries()
	if err := s.commit(ctx, trade.OwnerID, ledger, entries); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("recorded trade",
		"owner", trade.OwnerID, "symbol", trade.Symbol, "side", trade.Side,
		"quantity", trade.Quantity, "price", trade.Price.String())
	return entries, nil
}

// RecordCashTransaction validates and appends an EXTERNAL_CASH entry.
func (s *LedgerService) RecordCashTransaction(ctx context.Context, tx CashTransaction) (model.LedgerEntry, error) {
	tx = s.normalizeCash(tx)
	if err := tx.check(); err != nil {
		return model.LedgerEntry{}, err
	}
	if _, err := s.profileRepo.GetProfile(ctx, tx.OwnerID); err != nil {
		return model.LedgerEntry{}, err
	}

	unlock := s.locks.Lock(tx.OwnerID)
	defer unlock()

	ledger, err := s.ledgerRepo.GetEntries(ctx, tx.OwnerID)
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveLedger, err)
	}
	if err := s.validator.ValidateCash(ledger, tx); err != nil {
		return model.LedgerEntry{}, err
	}

	entries := tx.entries()
	if err := s.commit(ctx, tx.OwnerID, ledger, entries); err != nil {
		return model.LedgerEntry{}, err
	}

	logger.FromContext(ctx).Info("recorded cash transaction",
		"owner", tx.OwnerID, "side", tx.Side, "amount", tx.Amount.String())
	return entries[0], nil
}

// BulkRecord records many rows as one unit. Rows are applied in
// chronological order (stable for equal timestamps), each validated against
// the committed ledger plus the rows before it. Derived state is rebuilt once
// at the end. Either every row is committed or none is; the first failing
// row is reported as a *RowError.
func (s *LedgerService) BulkRecord(ctx context.Context, ownerID string, rows []BulkRow) (BulkResult, error) {
	if len(rows) == 0 {
		return BulkResult{Entries: []model.LedgerEntry{}}, nil
	}
	if _, err := s.profileRepo.GetProfile(ctx, ownerID); err != nil {
		return BulkResult{}, err
	}

	type indexed struct {
		row BulkRow
		pos int
	}
	ordered := make([]indexed, len(rows))
	for i, r := range rows {
		if r.Trade != nil {
			t := s.normalizeTrade(*r.Trade)
			t.OwnerID = ownerID
			r.Trade = &t
		}
		if r.Cash != nil {
			c := s.normalizeCash(*r.Cash)
			c.OwnerID = ownerID
			r.Cash = &c
		}
		ordered[i] = indexed{row: r, pos: i + 1}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].row.occurredAt().Before(ordered[j].row.occurredAt())
	})

	unlock := s.locks.Lock(ownerID)
	defer unlock()

	committed, err := s.ledgerRepo.GetEntries(ctx, ownerID)
	if err != nil {
		return BulkResult{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveLedger, err)
	}

	running := append([]model.LedgerEntry(nil), committed...)
	var added []model.LedgerEntry
	for _, item := range ordered {
		var entries []model.LedgerEntry
		switch {
		case item.row.Trade != nil:
			if err := s.validator.ValidateTrade(ctx, running, *item.row.Trade); err != nil {
				return BulkResult{}, &RowError{Row: item.pos, Err: err}
			}
			entries = item.row.Trade.entries()
		case item.row.Cash != nil:
			if err := s.validator.ValidateCash(running, *item.row.Cash); err != nil {
				return BulkResult{}, &RowError{Row: item.pos, Err: err}
			}
			entries = item.row.Cash.entries()
		default:
			return BulkResult{}, &RowError{Row: item.pos, Err: invalid("action", apperrors.ErrInvalidKind, "row is neither a trade nor a cash movement")}
		}
		running = append(running, entries...)
		added = append(added, entries...)
	}

	if err := s.commit(ctx, ownerID, committed, added); err != nil {
		return BulkResult{}, err
	}

	logger.FromContext(ctx).Info("recorded bulk upload", "owner", ownerID, "rows", len(rows), "entries", len(added))
	return BulkResult{Recorded: len(rows), Entries: added}, nil
}

// GetLedger returns an owner's entries, filtered and ordered as requested.
func (s *LedgerService) GetLedger(ctx context.Context, ownerID string, filters *model.LedgerFilters) ([]model.LedgerEntry, error) {
	if _, err := s.profileRepo.GetProfile(ctx, ownerID); err != nil {
		return nil, err
	}
	entries, err := s.ledgerRepo.GetEntries(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveLedger, err)
	}
	if filters == nil {
		return entries, nil
	}

	out := make([]model.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if filters.Match(e) {
			out = append(out, e)
		}
	}
	if filters.SortDir == "desc" {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

// commit rebuilds derived state over committed+added and writes the new
// entries, the snapshot and the return series in one transaction. The caller
// must hold the owner's lock.
func (s *LedgerService) commit(ctx context.Context, ownerID string, committed, added []model.LedgerEntry) error {
	all := make([]model.LedgerEntry, 0, len(committed)+len(added))
	all = append(all, committed...)
	all = append(all, added...)
	sort.SliceStable(all, func(i, j int) bool { return model.EntryLess(all[i], all[j]) })

	from := added[0].Date()
	for _, e := range added {
		if e.Date().Before(from) {
			from = e.Date()
		}
	}

	derived, err := s.recomputer.Recompute(ctx, ownerID, all, from)
	if err != nil {
		return err
	}

	if err := storeDerived(ctx, s.db, s.snapshotRepo, s.returnsRepo, ownerID, derived, func(tx *sql.Tx) error {
		return s.ledgerRepo.WithTx(tx).InsertEntries(ctx, added)
	}); err != nil {
		return err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
	return nil
}

func (s *LedgerService) normalizeTrade(t EquityTrade) EquityTrade {
	t.Symbol = normalizeSymbol(t.Symbol)
	t.Side = model.TradeSide(strings.ToLower(string(t.Side)))
	t.OccurredAt = t.OccurredAt.In(s.loc).Truncate(time.Second)
	return t
}

func (s *LedgerService) normalizeCash(c CashTransaction) CashTransaction {
	c.Side = model.CashSide(strings.ToLower(string(c.Side)))
	c.OccurredAt = c.OccurredAt.In(s.loc).Truncate(time.Second)
	return c
}

// storeDerived runs before (if any) and replaces the owner's snapshot and
// return series inside one transaction.
func storeDerived(
	ctx context.Context,
	db *sql.DB,
	snapshotRepo *repository.SnapshotRepository,
	returnsRepo *repository.ReturnsRepository,
	ownerID string,
	derived Derived,
	before func(tx *sql.Tx) error,
) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrFailedToRecord, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.FromContext(ctx).Error("rollback failed", "owner", ownerID, "error", rbErr)
			}
		}
	}()

	if before != nil {
		if err = before(tx); err != nil {
			return err
		}
	}
	snapshot := derived.Snapshot
	snapshot.OwnerID = ownerID
	if err = snapshotRepo.WithTx(tx).ReplaceSnapshot(ctx, snapshot); err != nil {
		return err
	}
	if err = returnsRepo.WithTx(tx).ReplaceReturnPoints(ctx, ownerID, derived.Returns); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit: %w", apperrors.ErrFailedToRecord, err)
	}
	return nil
}
