package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adithyabsk/portfoliohut/internal/api/handlers"
	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/testutil"
)

func TestProfileHandler_CreateProfile(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		existing   string
		wantStatus int
	}{
		{name: "creates a profile", body: `{"username":"nina","displayName":"Nina"}`, wantStatus: http.StatusCreated},
		{name: "private profile", body: `{"username":"omar","displayName":"Omar","visibility":"private"}`, wantStatus: http.StatusCreated},
		{name: "missing username", body: `{"displayName":"Nobody"}`, wantStatus: http.StatusBadRequest},
		{name: "bad visibility", body: `{"username":"pia","displayName":"Pia","visibility":"friends"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", body: `{"username":"quin","displayName":"Quin","admin":true}`, wantStatus: http.StatusBadRequest},
		{name: "username taken", body: `{"username":"rose","displayName":"Rose"}`, existing: "rose", wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			db := testutil.SetupTestDB(t)
			handler := handlers.NewProfileHandler(testutil.NewTestProfileService(t, db))
			if tt.existing != "" {
				testutil.CreateProfile(t, db, tt.existing)
			}
			req := testutil.NewJSONRequestWithURLParams(http.MethodPost, "/api/profile", tt.body, nil)
			w := httptest.NewRecorder()

			// Execute
			handler.CreateProfile(w, req)

			// Assert
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			var profile model.Profile
			if err := json.NewDecoder(w.Body).Decode(&profile); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if profile.ID == "" {
				t.Error("Expected an ID on the created profile")
			}
		})
	}
}

func TestProfileHandler_GetProfile(t *testing.T) {
	t.Run("returns the profile", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewProfileHandler(testutil.NewTestProfileService(t, db))
		owner := testutil.CreateProfile(t, db, "sven")
		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/profile/"+owner.ID, withOwner(owner.ID))
		w := httptest.NewRecorder()

		// Execute
		handler.GetProfile(w, req)

		// Assert
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var profile model.Profile
		if err := json.NewDecoder(w.Body).Decode(&profile); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if profile.Username != "sven" {
			t.Errorf("Expected sven, got %q", profile.Username)
		}
	})

	t.Run("unknown profile is not found", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewProfileHandler(testutil.NewTestProfileService(t, db))
		id := testutil.MakeID()
		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/profile/"+id, withOwner(id))
		w := httptest.NewRecorder()

		// Execute
		handler.GetProfile(w, req)

		// Assert
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}
