package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/model"
)

// CompanyRepository persists company metadata in the equity_info table.
type CompanyRepository struct {
	db *sql.DB
}

// NewCompanyRepository creates a new CompanyRepository.
func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// GetCompanyInfo returns the stored metadata for symbol.
// Returns apperrors.ErrCompanyInfoNotFound when nothing is stored.
func (r *CompanyRepository) GetCompanyInfo(ctx context.Context, symbol string) (model.CompanyInfo, error) {
	query := `
		SELECT symbol, name, sector, website, logo_url, summary, fetched_at
		FROM equity_info
		WHERE symbol = ?
	`

	var info model.CompanyInfo
	var fetchedAt string
	err := r.db.QueryRowContext(ctx, query, symbol).Scan(
		&info.Symbol,
		&info.Name,
		&info.Sector,
		&info.Website,
		&info.LogoURL,
		&info.Summary,
		&fetchedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CompanyInfo{}, apperrors.ErrCompanyInfoNotFound
		}
		return model.CompanyInfo{}, fmt.Errorf("failed to query equity_info: %w", err)
	}

	if info.FetchedAt, err = ParseTimestamp(fetchedAt); err != nil {
		return model.CompanyInfo{}, err
	}
	return info, nil
}

// UpsertCompanyInfo inserts or replaces the metadata row for info.Symbol.
func (r *CompanyRepository) UpsertCompanyInfo(ctx context.Context, info model.CompanyInfo) error {
	query := `
		INSERT INTO equity_info (symbol, name, sector, website, logo_url, summary, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = excluded.name,
			sector = excluded.sector,
			website = excluded.website,
			logo_url = excluded.logo_url,
			summary = excluded.summary,
			fetched_at = excluded.fetched_at
	`
	_, err := r.db.ExecContext(ctx, query,
		info.Symbol,
		info.Name,
		info.Sector,
		info.Website,
		info.LogoURL,
		info.Summary,
		formatTimestamp(info.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert equity_info: %w", err)
	}
	return nil
}
