package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/model"
)

// PriceRepository provides data access methods for the price_bar table.
type PriceRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// WithTx returns a copy of the repository that runs its statements in tx.
func (r *PriceRepository) WithTx(tx *sql.Tx) *PriceRepository {
	return &PriceRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *PriceRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const priceBarColumns = `symbol, date, open, high, low, close, volume, dividends, splits`

// GetPriceBars returns every stored bar for symbol, oldest first.
func (r *PriceRepository) GetPriceBars(ctx context.Context, symbol string) ([]model.PriceBar, error) {
	query := `SELECT ` + priceBarColumns + ` FROM price_bar WHERE symbol = ? ORDER BY date ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query price_bar table: %w", err)
	}
	defer rows.Close()

	bars := []model.PriceBar{}
	for rows.Next() {
		bar, err := scanPriceBar(rows)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price_bar table: %w", err)
	}

	return bars, nil
}

// GetPriceBar returns the bar of symbol on date.
// Returns apperrors.ErrPriceBarNotFound when no such bar is stored.
func (r *PriceRepository) GetPriceBar(ctx context.Context, symbol string, date time.Time) (model.PriceBar, error) {
	query := `SELECT ` + priceBarColumns + ` FROM price_bar WHERE symbol = ? AND date = ?`

	bar, err := scanPriceBar(r.getQuerier().QueryRowContext(ctx, query, symbol, formatDate(date)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PriceBar{}, apperrors.ErrPriceBarNotFound
		}
		return model.PriceBar{}, err
	}
	return bar, nil
}

// GetLatestBarDate returns the date of the newest stored bar for symbol.
// The boolean is false when nothing is stored yet.
func (r *PriceRepository) GetLatestBarDate(ctx context.Context, symbol string) (time.Time, bool, error) {
	var dateStr sql.NullString
	err := r.getQuerier().QueryRowContext(ctx,
		`SELECT MAX(date) FROM price_bar WHERE symbol = ?`, symbol).Scan(&dateStr)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query latest price_bar: %w", err)
	}
	if !dateStr.Valid {
		return time.Time{}, false, nil
	}
	d, err := ParseTime(dateStr.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return d, true, nil
}

// InsertPriceBars stores bars, skipping any (symbol, date) already present.
// It returns the number of rows actually written.
func (r *PriceRepository) InsertPriceBars(ctx context.Context, bars []model.PriceBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	stmt, err := r.getQuerier().PrepareContext(ctx, `
		INSERT OR IGNORE INTO price_bar (`+priceBarColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare price_bar insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, b := range bars {
		res, err := stmt.ExecContext(ctx,
			b.Symbol,
			formatDate(b.Date),
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			b.Volume,
			b.Dividends.String(),
			b.Splits,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert price_bar %s %s: %w", b.Symbol, formatDate(b.Date), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	return inserted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPriceBar(row rowScanner) (model.PriceBar, error) {
	var b model.PriceBar
	var date, open, high, low, closePrice, dividends string

	if err := row.Scan(&b.Symbol, &date, &open, &high, &low, &closePrice, &b.Volume, &dividends, &b.Splits); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, err
		}
		return b, fmt.Errorf("failed to scan price_bar results: %w", err)
	}

	var err error
	if b.Date, err = ParseTime(date); err != nil {
		return b, err
	}
	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{open, &b.Open},
		{high, &b.High},
		{low, &b.Low},
		{closePrice, &b.Close},
		{dividends, &b.Dividends},
	} {
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			return b, fmt.Errorf("failed to parse price %q: %w", f.raw, err)
		}
	}

	return b, nil
}
