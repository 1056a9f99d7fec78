package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adithyabsk/portfoliohut/internal/database"
	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/version"
)

// SystemService reports liveness and build information.
type SystemService struct {
	db        *sql.DB
	benchmark string
}

// NewSystemService creates a new SystemService. benchmark is the index symbol
// the returns comparison uses.
func NewSystemService(db *sql.DB, benchmark string) *SystemService {
	return &SystemService{
		db:        db,
		benchmark: benchmark,
	}
}

// CheckHealth pings the database.
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion reports the application version and the applied schema version.
func (s *SystemService) CheckVersion(ctx context.Context) (model.VersionInfo, error) {
	current, pending, err := database.SchemaVersion(ctx, s.db)
	if err != nil {
		return model.VersionInfo{}, err
	}

	info := model.VersionInfo{
		AppVersion:      version.Version,
		SchemaVersion:   current,
		Benchmark:       s.benchmark,
		MigrationNeeded: pending,
		Features: map[string]bool{
			"ledger":      true,
			"returns":     true,
			"leaderboard": true,
			"csv_import":  true,
			"benchmark":   s.benchmark != "",
		},
	}
	if pending {
		msg := fmt.Sprintf("database schema version %d has pending migrations, run `portfoliohut migrate`", current)
		info.MigrationMessage = &msg
	}
	return info, nil
}
