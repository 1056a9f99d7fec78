package testutil

import (
	"database/sql"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/adithyabsk/portfoliohut/internal/calendar"
	"github.com/adithyabsk/portfoliohut/internal/repository"
	"github.com/adithyabsk/portfoliohut/internal/service"
)

// DefaultNow is the clock used by test services: Friday 2024-03-01, one hour
// after the New York close.
var DefaultNow = NewYorkTime("2024-03-01 17:00")

// TestServices is a fully wired service graph over one database.
type TestServices struct {
	Calendar  *calendar.Exchange
	Market    *service.MarketDataService
	Validator *service.TransactionValidator
	Ledger    *service.LedgerService
	Returns   *service.ReturnsService
	Ranking   *service.RankingService
	Portfolio *service.PortfolioService
	Profiles  *service.ProfileService
	Import    *service.ImportService
	Demo      *service.DemoService
	System    *service.SystemService
}

// NewTestServices wires every service against db and provider, with the
// clock fixed at now.
//
// Example usage:
//
//	db := testutil.SetupTestDB(t)
//	mock := testutil.NewMockMarketDataProvider().WithCloses("AAPL", "2024-01-02", "150")
//	svc := testutil.NewTestServices(t, db, mock, testutil.DefaultNow)
func NewTestServices(t *testing.T, db *sql.DB, provider service.MarketDataProvider, now time.Time) *TestServices {
	t.Helper()

	clock := FixedClock(now)
	cal := NewTestCalendar(t)

	ledgerRepo := repository.NewLedgerRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	returnsRepo := repository.NewReturnsRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	market := service.NewMarketDataService(
		repository.NewPriceRepository(db),
		repository.NewCompanyRepository(db),
		ledgerRepo,
		provider,
		cal,
		service.MarketDataOptions{
			CacheTTL:           time.Minute,
			RefreshConcurrency: 2,
			BenchmarkSymbol:    "^GSPC",
			Now:                clock,
		},
	)
	validator := service.NewTransactionValidator(cal, market, clock)
	recomputer := service.NewFullRecompute(market, cal.Location(), clock)
	locks := service.NewOwnerLocks()
	ranking := service.NewRankingService(profileRepo, returnsRepo, time.Minute)

	ledger := service.NewLedgerService(db, ledgerRepo, snapshotRepo, returnsRepo, profileRepo, validator, recomputer, locks, ranking)
	profiles := service.NewProfileService(profileRepo, ranking)

	return &TestServices{
		Calendar:  cal,
		Market:    market,
		Validator: validator,
		Ledger:    ledger,
		Returns: service.NewReturnsService(
			db, ledgerRepo, snapshotRepo, returnsRepo, profileRepo,
			recomputer, locks, market, ranking, "^GSPC", 2,
		),
		Ranking:   ranking,
		Portfolio: service.NewPortfolioService(snapshotRepo, profileRepo, market, market),
		Profiles:  profiles,
		Import:    service.NewImportService(ledger, cal),
		Demo:      service.NewDemoService(profiles, ledger, market, cal),
		System:    service.NewSystemService(db, "^GSPC"),
	}
}

// NewTestLedgerService returns the ledger service of a fresh service graph.
func NewTestLedgerService(t *testing.T, db *sql.DB, provider service.MarketDataProvider) *service.LedgerService {
	t.Helper()
	return NewTestServices(t, db, provider, DefaultNow).Ledger
}

// NewTestProfileService creates a ProfileService without a leaderboard cache.
func NewTestProfileService(t *testing.T, db *sql.DB) *service.ProfileService {
	t.Helper()
	return service.NewProfileService(repository.NewProfileRepository(db), nil)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db, "^GSPC")
}

// NewTestCalendar returns the NYSE calendar in America/New_York.
func NewTestCalendar(t *testing.T) *calendar.Exchange {
	t.Helper()

	cal, err := calendar.NewNYSE("America/New_York", nil)
	if err != nil {
		t.Fatalf("Failed to create test calendar: %v", err)
	}
	return cal
}

// FixedClock returns a clock that always reports now.
func FixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

// NewYork returns the America/New_York location.
func NewYork() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
	return loc
}

// NewYorkTime parses "2006-01-02 15:04" as New York wall-clock time.
//
// Example usage:
//
//	at := testutil.NewYorkTime("2024-01-02 10:00")
func NewYorkTime(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, NewYork())
	if err != nil {
		panic(err)
	}
	return t
}

// Date parses "2006-01-02" as midnight UTC.
func Date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeUsername generates a unique username for testing.
//
// Example usage:
//
//	name := testutil.MakeUsername("alice")
//	// Returns: "alice_abc123"
func MakeUsername(base string) string {
	if base == "" {
		base = "user"
	}
	return base + "_" + strings.ToLower(randomAlphanumeric(6))
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
