package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/repository"
	"github.com/adithyabsk/portfoliohut/internal/testutil"
)

// storeReturns writes a return series for owner directly, bypassing the ledger.
func storeReturns(t *testing.T, svc *testutil.TestServices, db *sql.DB, ownerID string, pairs ...any) {
	t.Helper()

	var points []model.ReturnPoint
	for i := 0; i+1 < len(pairs); i += 2 {
		points = append(points, model.ReturnPoint{
			Date:      testutil.Date(pairs[i].(string)),
			ReturnPct: pairs[i+1].(float64),
		})
	}
	if err := repository.NewReturnsRepository(db).ReplaceReturnPoints(context.Background(), ownerID, points); err != nil {
		t.Fatalf("Failed to store return points: %v", err)
	}
	svc.Ranking.Invalidate()
}

// TestRankingService_Leaderboard tests leaderboard ordering.
//
// WHY: The leaderboard is the social heart of the product. Owners must be
// ordered by return with a stable tie-break, and owners without a return must
// never outrank anyone who has one, even a negative one.
func TestRankingService_Leaderboard(t *testing.T) {
	ctx := context.Background()

	t.Run("orders by return with owners lacking a return last", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockMarketDataProvider(), testutil.DefaultNow)
		loser := testutil.CreateProfile(t, db, "loser")
		winner := testutil.CreateProfile(t, db, "winner")
		idle := testutil.CreateProfile(t, db, "idle")
		storeReturns(t, svc, db, loser.ID, "2024-01-02", -0.05)
		storeReturns(t, svc, db, winner.ID, "2024-01-02", 0.10, "2024-01-03", 0.10)

		// Execute
		rows, err := svc.Ranking.Leaderboard(ctx, []string{idle.ID, loser.ID, winner.ID})

		// Assert
		if err != nil {
			t.Fatalf("Leaderboard() returned unexpected error: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("Expected 3 rows, got %d", len(rows))
		}
		wantOrder := []string{"winner", "loser", "idle"}
		for i, want := range wantOrder {
			if rows[i].Username != want {
				t.Errorf("rows[%d] = %s, want %s", i, rows[i].Username, want)
			}
			if rows[i].Rank != i+1 {
				t.Errorf("rows[%d].Rank = %d, want %d", i, rows[i].Rank, i+1)
			}
		}
		if rows[0].ReturnPct == nil || !approxEqual(*rows[0].ReturnPct, 21) {
			t.Errorf("Expected winner at 21%%, got %v", rows[0].ReturnPct)
		}
		if rows[2].ReturnPct != nil {
			t.Errorf("Expected no return for idle owner, got %v", *rows[2].ReturnPct)
		}
	})

	t.Run("equal returns are ordered by username", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockMarketDataProvider(), testutil.DefaultNow)
		b := testutil.CreateProfile(t, db, "bravo")
		a := testutil.CreateProfile(t, db, "alpha")
		storeReturns(t, svc, db, a.ID, "2024-01-02", 0.02)
		storeReturns(t, svc, db, b.ID, "2024-01-02", 0.02)

		// Execute
		rows, err := svc.Ranking.Leaderboard(ctx, []string{b.ID, a.ID})

		// Assert
		if err != nil {
			t.Fatalf("Leaderboard() returned unexpected error: %v", err)
		}
		if rows[0].Username != "alpha" || rows[1].Username != "bravo" {
			t.Errorf("Expected alpha before bravo, got %s, %s", rows[0].Username, rows[1].Username)
		}
	})

	t.Run("unknown ids are skipped", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockMarketDataProvider(), testutil.DefaultNow)
		p := testutil.CreateProfile(t, db, "solo")

		// Execute
		rows, err := svc.Ranking.Leaderboard(ctx, []string{p.ID, testutil.MakeID()})

		// Assert
		if err != nil {
			t.Fatalf("Leaderboard() returned unexpected error: %v", err)
		}
		if len(rows) != 1 {
			t.Errorf("Expected 1 row, got %d", len(rows))
		}
	})
}

// TestRankingService_PublicLeaderboard tests visibility, limits and caching.
//
// WHY: Private profiles must never leak onto the public board, and a ledger
// write must be visible on the next read even though results are cached.
func TestRankingService_PublicLeaderboard(t *testing.T) {
	ctx := context.Background()

	t.Run("private profiles are hidden", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockMarketDataProvider(), testutil.DefaultNow)
		public := testutil.CreateProfile(t, db, "shown")
		hidden := testutil.NewProfile().WithUsername("hidden").Private().Build(t, db)
		storeReturns(t, svc, db, public.ID, "2024-01-02", 0.01)
		storeReturns(t, svc, db, hidden.ID, "2024-01-02", 0.50)

		// Execute
		rows, err := svc.Ranking.PublicLeaderboard(ctx, 0)

		// Assert
		if err != nil {
			t.Fatalf("PublicLeaderboard() returned unexpected error: %v", err)
		}
		if len(rows) != 1 || rows[0].Username != "shown" {
			t.Errorf("Expected only the public profile, got %+v", rows)
		}
	})

	t.Run("limit keeps the top rows", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockMarketDataProvider(), testutil.DefaultNow)
		for i, p := range testutil.CreateProfiles(t, db, 4) {
			storeReturns(t, svc, db, p.ID, "2024-01-02", float64(i)/100)
		}

		// Execute
		rows, err := svc.Ranking.PublicLeaderboard(ctx, 2)

		// Assert
		if err != nil {
			t.Fatalf("PublicLeaderboard() returned unexpected error: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("Expected 2 rows, got %d", len(rows))
		}
		if !approxEqual(*rows[0].ReturnPct, 3) {
			t.Errorf("Expected the 3%% owner first, got %v", *rows[0].ReturnPct)
		}
	})

	t.Run("ledger writes invalidate the cached board", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, newAAPLMock(), testutil.NewYorkTime("2024-01-04 18:00"))
		owner := testutil.CreateProfile(t, db, "trader")

		before, err := svc.Ranking.PublicLeaderboard(ctx, 0)
		if err != nil {
			t.Fatalf("PublicLeaderboard() returned unexpected error: %v", err)
		}
		if before[0].ReturnPct != nil {
			t.Fatalf("Expected no return before trading, got %v", *before[0].ReturnPct)
		}

		if _, err := svc.Ledger.RecordCashTransaction(ctx, deposit(owner.ID, "2024-01-02 10:00", "100000")); err != nil {
			t.Fatalf("deposit returned unexpected error: %v", err)
		}
		if _, err := svc.Ledger.RecordEquityTrade(ctx, buy(owner.ID, "AAPL", "2024-01-03 11:00", 100, "150")); err != nil {
			t.Fatalf("buy returned unexpected error: %v", err)
		}

		// Execute
		after, err := svc.Ranking.PublicLeaderboard(ctx, 0)

		// Assert
		if err != nil {
			t.Fatalf("PublicLeaderboard() returned unexpected error: %v", err)
		}
		if after[0].ReturnPct == nil {
			t.Error("Expected a return after trading, got the cached empty board")
		}
	})
}
