package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/adithyabsk/portfoliohut/internal/model"
)

// SnapshotRepository stores the derived portfolio_snapshot rows. The table is
// a cache: it is replaced wholesale whenever an owner's ledger changes.
type SnapshotRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// WithTx returns a copy of the repository that runs its statements in tx.
func (r *SnapshotRepository) WithTx(tx *sql.Tx) *SnapshotRepository {
	return &SnapshotRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *SnapshotRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetSnapshot returns the stored snapshot of an owner, cash row first then by
// symbol. An owner that never recorded anything has no rows.
func (r *SnapshotRepository) GetSnapshot(ctx context.Context, ownerID string) (model.Snapshot, error) {
	query := `
		SELECT symbol, quantity, average_cost
		FROM portfolio_snapshot
		WHERE owner_id = ?
		ORDER BY CASE WHEN symbol = '-' THEN 0 ELSE 1 END, symbol
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, ownerID)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to query portfolio_snapshot table: %w", err)
	}
	defer rows.Close()

	snap := model.Snapshot{OwnerID: ownerID, Holdings: []model.Holding{}}
	for rows.Next() {
		var h model.Holding
		var cost string
		if err := rows.Scan(&h.Symbol, &h.Quantity, &cost); err != nil {
			return model.Snapshot{}, fmt.Errorf("failed to scan portfolio_snapshot results: %w", err)
		}
		if h.AverageCost, err = decimal.NewFromString(cost); err != nil {
			return model.Snapshot{}, fmt.Errorf("failed to parse average_cost %q: %w", cost, err)
		}
		snap.Holdings = append(snap.Holdings, h)
	}
	if err = rows.Err(); err != nil {
		return model.Snapshot{}, fmt.Errorf("error iterating portfolio_snapshot table: %w", err)
	}

	return snap, nil
}

// ReplaceSnapshot deletes the owner's rows and writes snap in their place.
// Call it inside a transaction so readers never see a half-written snapshot.
func (r *SnapshotRepository) ReplaceSnapshot(ctx context.Context, snap model.Snapshot) error {
	q := r.getQuerier()

	if _, err := q.ExecContext(ctx, `DELETE FROM portfolio_snapshot WHERE owner_id = ?`, snap.OwnerID); err != nil {
		return fmt.Errorf("failed to clear portfolio_snapshot: %w", err)
	}

	if len(snap.Holdings) == 0 {
		return nil
	}

	stmt, err := q.PrepareContext(ctx, `
		INSERT INTO portfolio_snapshot (owner_id, symbol, quantity, average_cost)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, h := range snap.Holdings {
		if _, err := stmt.ExecContext(ctx, snap.OwnerID, h.Symbol, h.Quantity, h.AverageCost.String()); err != nil {
			return fmt.Errorf("failed to insert snapshot row %s: %w", h.Symbol, err)
		}
	}

	return nil
}
