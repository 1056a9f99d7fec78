package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/model"
)

// ProfileRepository provides data access methods for the profile table.
type ProfileRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewProfileRepository creates a new ProfileRepository with the provided database connection.
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// WithTx returns a copy of the repository that runs its statements in tx.
func (r *ProfileRepository) WithTx(tx *sql.Tx) *ProfileRepository {
	return &ProfileRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *ProfileRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// InsertProfile stores a new profile.
// Returns apperrors.ErrUsernameTaken if the username is already in use.
func (r *ProfileRepository) InsertProfile(ctx context.Context, p *model.Profile) error {
	query := `
		INSERT INTO profile (id, username, display_name, visibility, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.getQuerier().ExecContext(ctx, query,
		p.ID,
		p.Username,
		p.DisplayName,
		string(p.Visibility),
		formatTimestamp(p.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrUsernameTaken
		}
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile by ID.
// Returns apperrors.ErrProfileNotFound if no profile exists.
func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	query := `
		SELECT id, username, display_name, visibility, created_at
		FROM profile
		WHERE id = ?
	`
	p, err := scanProfile(r.getQuerier().QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Profile{}, apperrors.ErrProfileNotFound
		}
		return model.Profile{}, err
	}
	return p, nil
}

// GetProfiles returns profiles, optionally restricted to public ones,
// ordered by username.
func (r *ProfileRepository) GetProfiles(ctx context.Context, publicOnly bool) ([]model.Profile, error) {
	query := `
		SELECT id, username, display_name, visibility, created_at
		FROM profile
	`
	var args []any
	if publicOnly {
		query += ` WHERE visibility = ?`
		args = append(args, string(model.VisibilityPublic))
	}
	query += ` ORDER BY username ASC`

	return r.queryProfiles(ctx, query, args...)
}

// GetProfilesByIDs returns the profiles with the given IDs. Unknown IDs are
// silently skipped.
func (r *ProfileRepository) GetProfilesByIDs(ctx context.Context, ids []string) ([]model.Profile, error) {
	if len(ids) == 0 {
		return []model.Profile{}, nil
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT id, username, display_name, visibility, created_at
		FROM profile
		WHERE id IN (` + placeholders(len(ids)) + `)
		ORDER BY username ASC
	`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.queryProfiles(ctx, query, args...)
}

func (r *ProfileRepository) queryProfiles(ctx context.Context, query string, args ...any) ([]model.Profile, error) {
	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile table: %w", err)
	}
	defer rows.Close()

	profiles := []model.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profile table: %w", err)
	}
	return profiles, nil
}

func scanProfile(row rowScanner) (model.Profile, error) {
	var p model.Profile
	var visibility, createdAt string
	if err := row.Scan(&p.ID, &p.Username, &p.DisplayName, &visibility, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan profile results: %w", err)
	}
	p.Visibility = model.Visibility(visibility)

	var err error
	if p.CreatedAt, err = ParseTimestamp(createdAt); err != nil {
		return p, err
	}
	return p, nil
}
