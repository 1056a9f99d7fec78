package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adithyabsk/portfoliohut/internal/api/handlers"
	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/testutil"
)

// TestLeaderboardHandler tests the ranked owner endpoints.
//
// WHY: The leaderboard is the only view of other people's portfolios, so it
// must never show private owners publicly and must reject malformed owner ids
// before they reach the database.
func TestLeaderboardHandler(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*handlers.LeaderboardHandler, model.Profile, model.Profile) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, aaplMock(), testutil.DefaultNow)

		trader := testutil.CreateProfile(t, db, "wade")
		testutil.NewEntry(trader.ID).Deposit("15000").At(testutil.NewYorkTime("2024-01-02 10:00")).Build(t, db)
		testutil.NewEntry(trader.ID).Buy("AAPL", 100, "150").At(testutil.NewYorkTime("2024-01-03 11:00")).Build(t, db)
		if err := svc.Returns.Recompute(ctx, trader.ID); err != nil {
			t.Fatalf("Recompute() returned unexpected error: %v", err)
		}
		hidden := testutil.NewProfile().WithUsername("xavi").Private().Build(t, db)

		return handlers.NewLeaderboardHandler(svc.Ranking), trader, hidden
	}

	decode := func(t *testing.T, w *httptest.ResponseRecorder) []model.LeaderboardRow {
		t.Helper()
		var rows []model.LeaderboardRow
		if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		return rows
	}

	t.Run("public board hides private owners", func(t *testing.T) {
		// Setup
		handler, trader, _ := setup(t)
		w := httptest.NewRecorder()

		// Execute
		handler.Public(w, httptest.NewRequest(http.MethodGet, "/api/leaderboard/public", nil))

		// Assert
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		rows := decode(t, w)
		if len(rows) != 1 || rows[0].OwnerID != trader.ID || rows[0].Rank != 1 {
			t.Errorf("Expected only the trader ranked first, got %+v", rows)
		}
	})

	t.Run("explicit owners include private ones", func(t *testing.T) {
		// Setup
		handler, trader, hidden := setup(t)
		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/leaderboard", map[string]string{"owner": hidden.ID})
		q := req.URL.Query()
		q.Add("owner", trader.ID)
		req.URL.RawQuery = q.Encode()
		w := httptest.NewRecorder()

		// Execute
		handler.Owners(w, req)

		// Assert
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		rows := decode(t, w)
		if len(rows) != 2 {
			t.Fatalf("Expected 2 rows, got %+v", rows)
		}
		if rows[0].OwnerID != trader.ID || rows[1].ReturnPct != nil {
			t.Errorf("Expected the trader first and the idle owner last, got %+v", rows)
		}
	})

	tests := []struct {
		name string
		path string
		call func(h *handlers.LeaderboardHandler) http.HandlerFunc
	}{
		{"limit out of range", "/api/leaderboard/public?limit=0", func(h *handlers.LeaderboardHandler) http.HandlerFunc { return h.Public }},
		{"limit not a number", "/api/leaderboard/public?limit=ten", func(h *handlers.LeaderboardHandler) http.HandlerFunc { return h.Public }},
		{"no owners", "/api/leaderboard", func(h *handlers.LeaderboardHandler) http.HandlerFunc { return h.Owners }},
		{"owner not a uuid", "/api/leaderboard?owner=nope", func(h *handlers.LeaderboardHandler) http.HandlerFunc { return h.Owners }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			handler, _, _ := setup(t)
			w := httptest.NewRecorder()

			// Execute
			tt.call(handler)(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			// Assert
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}
