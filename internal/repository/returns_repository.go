package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adithyabsk/portfoliohut/internal/model"
)

// ReturnsRepository provides data access methods for the return_point table,
// the per-owner cache of daily time-weighted returns. The ledger stays the
// source of truth; rows here are replaced on every recompute.
type ReturnsRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewReturnsRepository creates a new repository instance.
func NewReturnsRepository(db *sql.DB) *ReturnsRepository {
	return &ReturnsRepository{db: db}
}

// WithTx returns a copy of the repository that runs its statements in tx.
func (r *ReturnsRepository) WithTx(tx *sql.Tx) *ReturnsRepository {
	return &ReturnsRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *ReturnsRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetReturnPoints returns an owner's cached daily returns ordered by date.
func (r *ReturnsRepository) GetReturnPoints(ctx context.Context, ownerID string) ([]model.ReturnPoint, error) {
	points := []model.ReturnPoint{}
	err := r.StreamReturnPoints(ctx, []string{ownerID}, func(_ string, p model.ReturnPoint) error {
		points = append(points, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}

// StreamReturnPoints calls callback for every cached point of the given
// owners, ordered by owner then date.
//
// The callback pattern lets the leaderboard fold each owner's series without
// holding every series in memory. The callback runs while the result set is
// open, so it must not issue queries of its own.
func (r *ReturnsRepository) StreamReturnPoints(
	ctx context.Context,
	ownerIDs []string,
	callback func(ownerID string, point model.ReturnPoint) error,
) error {
	if len(ownerIDs) == 0 {
		return nil
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT owner_id, date, return_pct
		FROM return_point
		WHERE owner_id IN (` + placeholders(len(ownerIDs)) + `)
		ORDER BY owner_id, date ASC
	`
	args := make([]any, len(ownerIDs))
	for i, id := range ownerIDs {
		args[i] = id
	}

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query return_point: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ownerID, dateStr string
		var p model.ReturnPoint
		if err := rows.Scan(&ownerID, &dateStr, &p.ReturnPct); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if p.Date, err = ParseTime(dateStr); err != nil {
			return fmt.Errorf("failed to parse date: %w", err)
		}
		if err := callback(ownerID, p); err != nil {
			return err
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}

	return nil
}

// ReplaceReturnPoints deletes the owner's cached series and stores points.
func (r *ReturnsRepository) ReplaceReturnPoints(ctx context.Context, ownerID string, points []model.ReturnPoint) error {
	q := r.getQuerier()

	if _, err := q.ExecContext(ctx, `DELETE FROM return_point WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to clear return_point: %w", err)
	}
	if len(points) == 0 {
		return nil
	}

	stmt, err := q.PrepareContext(ctx, `INSERT INTO return_point (owner_id, date, return_pct) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare return_point insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, ownerID, formatDate(p.Date), p.ReturnPct); err != nil {
			return fmt.Errorf("failed to insert return_point %s: %w", formatDate(p.Date), err)
		}
	}

	return nil
}
