package service_test

import (
	"context"
	"testing"

	"github.com/adithyabsk/portfoliohut/internal/testutil"
)

// flatDemoMarket prices every demo ticker at 100 on every 2020 session.
func flatDemoMarket(t *testing.T) *testutil.MockMarketDataProvider {
	t.Helper()

	mock := testutil.NewMockMarketDataProvider()
	days := testutil.NewTestCalendar(t).TradingDays(testutil.Date("2020-01-01"), testutil.Date("2020-12-31"))
	for _, symbol := range []string{
		"AAPL", "ADI", "ADP", "ADSK", "BR", "CRM", "IBM", "MA",
		"META", "MSFT", "MSI", "NVDA", "PYPL", "TTWO", "V", "VRSN",
	} {
		for _, day := range days {
			mock.WithBar(testutil.NewPriceBar(symbol, day).Bar())
		}
	}
	return mock
}

// TestDemoService_Seed tests seeding demo profiles.
//
// WHY: Demo data fills an empty leaderboard on a fresh install. Every seeded
// history must pass the same validation as real trades, and seeding twice
// must not duplicate anyone.
func TestDemoService_Seed(t *testing.T) {
	ctx := context.Background()

	// Setup
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, flatDemoMarket(t), testutil.DefaultNow)

	// Execute
	created, err := svc.Demo.Seed(ctx, 2)

	// Assert
	if err != nil {
		t.Fatalf("Seed() returned unexpected error: %v", err)
	}
	if len(created) != 2 || created[0].Username != "demo1" || created[1].Username != "demo2" {
		t.Fatalf("Expected demo1 and demo2, got %+v", created)
	}
	// One deposit plus ten trades with their cash pairs, per owner.
	testutil.AssertRowCount(t, db, "ledger_entry", 2*21)

	snap, err := svc.Portfolio.GetSnapshot(ctx, created[0].ID)
	if err != nil {
		t.Fatalf("GetSnapshot() returned unexpected error: %v", err)
	}
	if len(snap.Equities()) != 6 {
		t.Errorf("Expected 6 positions, got %d", len(snap.Equities()))
	}
	if !snap.Cash().IsPositive() {
		t.Errorf("Expected positive cash, got %s", snap.Cash())
	}

	t.Run("seeding again skips existing profiles", func(t *testing.T) {
		// Execute
		again, err := svc.Demo.Seed(ctx, 2)

		// Assert
		if err != nil {
			t.Fatalf("Seed() returned unexpected error: %v", err)
		}
		if len(again) != 0 {
			t.Errorf("Expected no new profiles, got %d", len(again))
		}
		testutil.AssertRowCount(t, db, "profile", 2)
	})
}
