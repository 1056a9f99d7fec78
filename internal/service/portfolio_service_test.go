package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/testutil"
)

// TestPortfolioService_GetSnapshot tests the stored snapshot view.
//
// WHY: The snapshot is what users see as "my holdings". It must exist for new
// owners (empty, not null) and reflect every recorded trade.
func TestPortfolioService_GetSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("new owner has an empty snapshot", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, newAAPLMock(), testutil.DefaultNow)
		owner := testutil.CreateProfile(t, db, "rita")

		// Execute
		snap, err := svc.Portfolio.GetSnapshot(ctx, owner.ID)

		// Assert
		if err != nil {
			t.Fatalf("GetSnapshot() returned unexpected error: %v", err)
		}
		if snap.Holdings == nil || len(snap.Holdings) != 0 {
			t.Errorf("Expected empty non-nil holdings, got %#v", snap.Holdings)
		}
	})

	t.Run("cash row comes first and closed positions are omitted", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, newAAPLMock(), testutil.DefaultNow)
		owner := testutil.CreateProfile(t, db, "sam")

		if _, err := svc.Ledger.RecordCashTransaction(ctx, deposit(owner.ID, "2024-01-02 10:00", "100000")); err != nil {
			t.Fatalf("deposit returned unexpected error: %v", err)
		}
		if _, err := svc.Ledger.RecordEquityTrade(ctx, buy(owner.ID, "AAPL", "2024-01-03 11:00", 10, "150")); err != nil {
			t.Fatalf("buy returned unexpected error: %v", err)
		}
		if _, err := svc.Ledger.RecordEquityTrade(ctx, sell(owner.ID, "AAPL", "2024-01-04 11:00", 10, "155")); err != nil {
			t.Fatalf("sell returned unexpected error: %v", err)
		}

		// Execute
		snap, err := svc.Portfolio.GetSnapshot(ctx, owner.ID)

		// Assert
		if err != nil {
			t.Fatalf("GetSnapshot() returned unexpected error: %v", err)
		}
		if len(snap.Holdings) != 1 {
			t.Fatalf("Expected only the cash row, got %+v", snap.Holdings)
		}
		if !snap.Holdings[0].IsCash() {
			t.Errorf("Expected the cash row first, got %s", snap.Holdings[0].Symbol)
		}
		if got := snap.Cash().String(); got != "100050" {
			t.Errorf("Expected cash 100050, got %s", got)
		}
	})

	t.Run("unknown owner is not found", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, newAAPLMock(), testutil.DefaultNow)

		// Execute
		_, err := svc.Portfolio.GetSnapshot(ctx, testutil.MakeID())

		// Assert
		if !errors.Is(err, apperrors.ErrProfileNotFound) {
			t.Errorf("Expected ErrProfileNotFound, got %v", err)
		}
	})
}

// TestPortfolioService_GetPortfolioDetails tests valuing holdings at the latest close.
//
// WHY: The details view drives the holdings table and allocation chart, so
// market value, gain and weight must all use the same latest close.
func TestPortfolioService_GetPortfolioDetails(t *testing.T) {
	ctx := context.Background()

	t.Run("values holdings and orders them by market value", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		mock := newAAPLMock().
			WithCloses("MSFT", "2024-01-02", "400", "2024-01-03", "400", "2024-01-05", "410").
			WithInfo(model.CompanyInfo{Symbol: "AAPL", Name: "Apple Inc.", LogoURL: "https://logo.example/aapl.png"})
		svc := testutil.NewTestServices(t, db, mock, testutil.DefaultNow)
		owner := testutil.CreateProfile(t, db, "tina")

		if _, err := svc.Ledger.RecordCashTransaction(ctx, deposit(owner.ID, "2024-01-02 10:00", "100000")); err != nil {
			t.Fatalf("deposit returned unexpected error: %v", err)
		}
		if _, err := svc.Ledger.RecordEquityTrade(ctx, buy(owner.ID, "MSFT", "2024-01-03 11:00", 10, "400")); err != nil {
			t.Fatalf("buy MSFT returned unexpected error: %v", err)
		}
		if _, err := svc.Ledger.RecordEquityTrade(ctx, buy(owner.ID, "AAPL", "2024-01-03 11:30", 100, "150")); err != nil {
			t.Fatalf("buy AAPL returned unexpected error: %v", err)
		}

		// Execute
		details, err := svc.Portfolio.GetPortfolioDetails(ctx, owner.ID)

		// Assert
		if err != nil {
			t.Fatalf("GetPortfolioDetails() returned unexpected error: %v", err)
		}
		if len(details.Holdings) != 2 {
			t.Fatalf("Expected 2 holdings, got %d", len(details.Holdings))
		}
		aapl, msft := details.Holdings[0], details.Holdings[1]
		if aapl.Symbol != "AAPL" || msft.Symbol != "MSFT" {
			t.Fatalf("Expected AAPL then MSFT, got %s then %s", aapl.Symbol, msft.Symbol)
		}
		if aapl.MarketValue.String() != "16000" || aapl.UnrealizedGL.String() != "1000" {
			t.Errorf("AAPL value/gain = %s/%s, want 16000/1000", aapl.MarketValue, aapl.UnrealizedGL)
		}
		if aapl.LastCloseDate != "2024-01-05" {
			t.Errorf("AAPL LastCloseDate = %s, want 2024-01-05", aapl.LastCloseDate)
		}
		if aapl.LogoURL != "https://logo.example/aapl.png" {
			t.Errorf("AAPL LogoURL = %q", aapl.LogoURL)
		}
		if msft.LogoURL != "" {
			t.Errorf("Expected no MSFT logo, got %q", msft.LogoURL)
		}
		if details.Cash.String() != "81000" || details.TotalValue.String() != "101100" {
			t.Errorf("cash/total = %s/%s, want 81000/101100", details.Cash, details.TotalValue)
		}
		if !approxEqual(aapl.Weight, 16000.0/101100.0) {
			t.Errorf("AAPL weight = %f", aapl.Weight)
		}
	})

	t.Run("TopHoldings keeps the largest positions", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		mock := newAAPLMock().WithCloses("MSFT", "2024-01-02", "400", "2024-01-03", "400")
		svc := testutil.NewTestServices(t, db, mock, testutil.DefaultNow)
		owner := testutil.CreateProfile(t, db, "uma")
		testutil.NewEntry(owner.ID).Deposit("100000").At(testutil.NewYorkTime("2024-01-02 10:00")).Build(t, db)
		testutil.NewEntry(owner.ID).Buy("MSFT", 1, "400").At(testutil.NewYorkTime("2024-01-03 11:00")).Build(t, db)
		testutil.NewEntry(owner.ID).Buy("AAPL", 100, "150").At(testutil.NewYorkTime("2024-01-03 12:00")).Build(t, db)
		if err := svc.Returns.Recompute(ctx, owner.ID); err != nil {
			t.Fatalf("Recompute() returned unexpected error: %v", err)
		}

		// Execute
		top, err := svc.Portfolio.TopHoldings(ctx, owner.ID, 1)

		// Assert
		if err != nil {
			t.Fatalf("TopHoldings() returned unexpected error: %v", err)
		}
		if len(top.Holdings) != 1 || top.Holdings[0].Symbol != "AAPL" {
			t.Errorf("Expected AAPL alone, got %+v", top.Holdings)
		}
		if top.EquityValue.String() != "16400" {
			t.Errorf("Expected totals over every position (16400), got %s", top.EquityValue)
		}
	})

	t.Run("holding without market data is unavailable", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockMarketDataProvider(), testutil.DefaultNow)
		owner := testutil.CreateProfile(t, db, "vic")
		testutil.NewEntry(owner.ID).Deposit("1000").At(testutil.NewYorkTime("2024-01-02 10:00")).Build(t, db)
		testutil.NewEntry(owner.ID).Buy("GONE", 1, "10").At(testutil.NewYorkTime("2024-01-03 11:00")).Build(t, db)
		if err := svc.Returns.Recompute(ctx, owner.ID); err != nil {
			t.Fatalf("Recompute() returned unexpected error: %v", err)
		}

		// Execute
		_, err := svc.Portfolio.GetPortfolioDetails(ctx, owner.ID)

		// Assert
		if !errors.Is(err, apperrors.ErrMarketDataUnavailable) {
			t.Errorf("Expected ErrMarketDataUnavailable, got %v", err)
		}
	})
}
