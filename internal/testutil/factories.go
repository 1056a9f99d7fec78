package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/repository"
)

// ProfileBuilder provides a fluent interface for creating test profiles.
//
// Example usage:
//
//	// Simple creation with defaults
//	profile := testutil.NewProfile().Build(t, db)
//
//	// Customized profile
//	profile := testutil.NewProfile().
//	    WithUsername("alice").
//	    Private().
//	    Build(t, db)
type ProfileBuilder struct {
	ID          string
	Username    string
	DisplayName string
	Visibility  model.Visibility
	CreatedAt   time.Time
}

// NewProfile creates a ProfileBuilder with sensible defaults.
func NewProfile() *ProfileBuilder {
	username := MakeUsername("user")
	return &ProfileBuilder{
		ID:          MakeID(),
		Username:    username,
		DisplayName: "Test " + username,
		Visibility:  model.VisibilityPublic,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

// WithID sets a custom ID.
func (b *ProfileBuilder) WithID(id string) *ProfileBuilder {
	b.ID = id
	return b
}

// WithUsername sets a custom username.
func (b *ProfileBuilder) WithUsername(username string) *ProfileBuilder {
	b.Username = username
	return b
}

// WithDisplayName sets a custom display name.
func (b *ProfileBuilder) WithDisplayName(name string) *ProfileBuilder {
	b.DisplayName = name
	return b
}

// Private hides the profile from the public leaderboard.
func (b *ProfileBuilder) Private() *ProfileBuilder {
	b.Visibility = model.VisibilityPrivate
	return b
}

// Build creates the profile in the database and returns it.
func (b *ProfileBuilder) Build(t *testing.T, db *sql.DB) model.Profile {
	t.Helper()

	query := `
		INSERT INTO profile (id, username, display_name, visibility, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Username, b.DisplayName, string(b.Visibility), b.CreatedAt.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}

	return model.Profile{
		ID:          b.ID,
		Username:    b.Username,
		DisplayName: b.DisplayName,
		Visibility:  b.Visibility,
		CreatedAt:   b.CreatedAt,
	}
}

// CreateProfile creates a public profile with the given username.
//
// Example usage:
//
//	profile := testutil.CreateProfile(t, db, "alice")
func CreateProfile(t *testing.T, db *sql.DB, username string) model.Profile {
	t.Helper()
	return NewProfile().WithUsername(username).Build(t, db)
}

// CreateProfiles creates multiple profiles with unique usernames.
func CreateProfiles(t *testing.T, db *sql.DB, count int) []model.Profile {
	t.Helper()

	profiles := make([]model.Profile, count)
	for i := 0; i < count; i++ {
		profiles[i] = NewProfile().Build(t, db)
	}
	return profiles
}

// EntryBuilder writes ledger entries straight to the database, bypassing
// validation. Trades are written with their internal cash pair.
//
// Example usage:
//
//	testutil.NewEntry(owner.ID).Deposit("100000").At(day1).Build(t, db)
//	testutil.NewEntry(owner.ID).Buy("AAPL", 100, "150").At(day2).Build(t, db)
type EntryBuilder struct {
	ownerID    string
	kind       model.EntryKind
	symbol     string
	quantity   int64
	price      decimal.Decimal
	occurredAt time.Time
}

// NewEntry creates an EntryBuilder for a 1,000 deposit at 2024-01-02 10:00 New York time.
func NewEntry(ownerID string) *EntryBuilder {
	return &EntryBuilder{
		ownerID:    ownerID,
		kind:       model.KindExternalCash,
		symbol:     model.CashSymbol,
		quantity:   1,
		price:      decimal.NewFromInt(1000),
		occurredAt: NewYorkTime("2024-01-02 10:00"),
	}
}

// Deposit makes the entry a deposit of amount.
func (b *EntryBuilder) Deposit(amount string) *EntryBuilder {
	b.kind, b.symbol, b.quantity, b.price = model.KindExternalCash, model.CashSymbol, 1, decimal.RequireFromString(amount)
	return b
}

// Withdraw makes the entry a withdrawal of amount.
func (b *EntryBuilder) Withdraw(amount string) *EntryBuilder {
	b.kind, b.symbol, b.quantity, b.price = model.KindExternalCash, model.CashSymbol, -1, decimal.RequireFromString(amount)
	return b
}

// Buy makes the entry a purchase of qty shares at price.
func (b *EntryBuilder) Buy(symbol string, qty int64, price string) *EntryBuilder {
	b.kind, b.symbol, b.quantity, b.price = model.KindEquity, symbol, qty, decimal.RequireFromString(price)
	return b
}

// Sell makes the entry a sale of qty shares at price.
func (b *EntryBuilder) Sell(symbol string, qty int64, price string) *EntryBuilder {
	b.kind, b.symbol, b.quantity, b.price = model.KindEquity, symbol, -qty, decimal.RequireFromString(price)
	return b
}

// At sets the timestamp.
func (b *EntryBuilder) At(t time.Time) *EntryBuilder {
	b.occurredAt = t
	return b
}

// Entries returns the entries the builder would write.
func (b *EntryBuilder) Entries() []model.LedgerEntry {
	main := model.LedgerEntry{
		ID:         MakeID(),
		OwnerID:    b.ownerID,
		Kind:       b.kind,
		Symbol:     b.symbol,
		OccurredAt: b.occurredAt,
		Quantity:   b.quantity,
		UnitPrice:  b.price,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if b.kind != model.KindEquity {
		return []model.LedgerEntry{main}
	}

	sign := int64(1)
	if b.quantity < 0 {
		sign = -1
	}
	cash := model.LedgerEntry{
		ID:         MakeID(),
		OwnerID:    b.ownerID,
		Kind:       model.KindInternalCash,
		Symbol:     model.CashSymbol,
		OccurredAt: b.occurredAt,
		Quantity:   -sign,
		UnitPrice:  main.Notional().Abs(),
		PairID:     main.ID,
		CreatedAt:  main.CreatedAt,
	}
	return []model.LedgerEntry{main, cash}
}

// Build writes the entries and returns them.
func (b *EntryBuilder) Build(t *testing.T, db *sql.DB) []model.LedgerEntry {
	t.Helper()

	entries := b.Entries()
	if err := repository.NewLedgerRepository(db).InsertEntries(context.Background(), entries); err != nil {
		t.Fatalf("Failed to create test ledger entries: %v", err)
	}
	return entries
}

// PriceBarBuilder provides a fluent interface for creating daily bars.
// Open, high and low default to the close.
//
// Example usage:
//
//	testutil.NewPriceBar("AAPL", day).WithClose("150").WithRange("148", "152").Build(t, db)
type PriceBarBuilder struct {
	bar model.PriceBar
}

// NewPriceBar creates a PriceBarBuilder closing at 100.
func NewPriceBar(symbol string, date time.Time) *PriceBarBuilder {
	p := decimal.NewFromInt(100)
	return &PriceBarBuilder{bar: model.PriceBar{
		Symbol: symbol,
		Date:   model.DateOf(date),
		Open:   p,
		High:   p,
		Low:    p,
		Close:  p,
		Volume: 1_000_000,
	}}
}

// WithClose sets the close and widens the range to contain it.
func (b *PriceBarBuilder) WithClose(price string) *PriceBarBuilder {
	c := decimal.RequireFromString(price)
	b.bar.Close = c
	b.bar.Open = c
	if c.GreaterThan(b.bar.High) {
		b.bar.High = c
	}
	if c.LessThan(b.bar.Low) {
		b.bar.Low = c
	}
	return b
}

// WithRange sets the day's low and high.
func (b *PriceBarBuilder) WithRange(low, high string) *PriceBarBuilder {
	b.bar.Low = decimal.RequireFromString(low)
	b.bar.High = decimal.RequireFromString(high)
	return b
}

// Bar returns the bar without writing it.
func (b *PriceBarBuilder) Bar() model.PriceBar {
	return b.bar
}

// Build writes the bar and returns it.
func (b *PriceBarBuilder) Build(t *testing.T, db *sql.DB) model.PriceBar {
	t.Helper()

	if _, err := repository.NewPriceRepository(db).InsertPriceBars(context.Background(), []model.PriceBar{b.bar}); err != nil {
		t.Fatalf("Failed to create test price bar: %v", err)
	}
	return b.bar
}

// CreateCloses writes one bar per (date, close) pair.
//
// Example usage:
//
//	testutil.CreateCloses(t, db, "AAPL", "2024-01-02", "150", "2024-01-03", "155")
func CreateCloses(t *testing.T, db *sql.DB, symbol string, pairs ...string) []model.PriceBar {
	t.Helper()

	if len(pairs)%2 != 0 {
		t.Fatalf("CreateCloses needs date/close pairs, got %d values", len(pairs))
	}
	bars := make([]model.PriceBar, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		bars = append(bars, NewPriceBar(symbol, Date(pairs[i])).WithClose(pairs[i+1]).Build(t, db))
	}
	return bars
}
