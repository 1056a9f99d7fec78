package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/model"
)

// LedgerRepository provides data access methods for the ledger_entry table.
// Entries are only ever inserted; there is no update or delete path.
type LedgerRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewLedgerRepository creates a new LedgerRepository with the provided database connection.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// WithTx returns a copy of the repository that runs its statements in tx.
func (r *LedgerRepository) WithTx(tx *sql.Tx) *LedgerRepository {
	return &LedgerRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *LedgerRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetEntries returns every entry of an owner in chronological order.
// Returns an empty slice if the owner has no entries.
func (r *LedgerRepository) GetEntries(ctx context.Context, ownerID string) ([]model.LedgerEntry, error) {
	query := `
		SELECT id, owner_id, kind, symbol, occurred_at, quantity, unit_price, COALESCE(pair_id, ''), created_at
		FROM ledger_entry
		WHERE owner_id = ?
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger_entry table: %w", err)
	}
	defer rows.Close()

	entries := []model.LedgerEntry{}
	for rows.Next() {
		var e model.LedgerEntry
		var kind, occurredAt, createdAt, unitPrice string

		if err := rows.Scan(
			&e.ID,
			&e.OwnerID,
			&kind,
			&e.Symbol,
			&occurredAt,
			&e.Quantity,
			&unitPrice,
			&e.PairID,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger_entry results: %w", err)
		}

		if e.Kind, err = model.ParseEntryKind(kind); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrLedgerInconsistent, err)
		}
		if e.OccurredAt, err = ParseTimestamp(occurredAt); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = ParseTimestamp(createdAt); err != nil {
			return nil, err
		}
		if e.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("failed to parse unit_price %q: %w", unitPrice, err)
		}

		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger_entry table: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return model.EntryLess(entries[i], entries[j])
	})

	return entries, nil
}

// InsertEntries appends entries in the given order. Equity entries must come
// before the internal cash entries that reference them.
// A unique constraint failure is reported as apperrors.ErrDuplicateEntry.
func (r *LedgerRepository) InsertEntries(ctx context.Context, entries []model.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := r.getQuerier().PrepareContext(ctx, `
		INSERT INTO ledger_entry (id, owner_id, kind, symbol, occurred_at, quantity, unit_price, pair_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare ledger insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		var pairID any
		if e.PairID != "" {
			pairID = e.PairID
		}
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := stmt.ExecContext(ctx,
			e.ID,
			e.OwnerID,
			string(e.Kind),
			e.Symbol,
			formatTimestamp(e.OccurredAt),
			e.Quantity,
			e.UnitPrice.String(),
			pairID,
			formatTimestamp(createdAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s %s at %s", apperrors.ErrDuplicateEntry, e.Kind, e.Symbol, formatTimestamp(e.OccurredAt))
			}
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}
	}

	return nil
}

// GetOwnerIDs returns the distinct owners that have at least one entry.
func (r *LedgerRepository) GetOwnerIDs(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, `SELECT DISTINCT owner_id FROM ledger_entry ORDER BY owner_id`)
}

// GetTradedSymbols returns every symbol that has ever been traded by anyone.
func (r *LedgerRepository) GetTradedSymbols(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, `SELECT DISTINCT symbol FROM ledger_entry WHERE kind = 'EQ' ORDER BY symbol`)
}

func (r *LedgerRepository) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger_entry table: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan ledger_entry results: %w", err)
		}
		out = append(out, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger_entry table: %w", err)
	}
	return out, nil
}
