package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/service"
	"github.com/adithyabsk/portfoliohut/internal/validation"
)

// TestRespondServiceError tests the mapping of service errors onto HTTP statuses.
// This is an internal test because respondServiceError is unexported.
//
// WHY: Clients branch on the status code. A rejected trade must never look
// like a server fault, and a provider outage must never look like a bad request.
func TestRespondServiceError(t *testing.T) {
	rule := func(field string, err error) error {
		return &service.ValidationError{Field: field, Reason: "because", Err: err}
	}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"market data unavailable", fmt.Errorf("load: %w", apperrors.ErrMarketDataUnavailable), http.StatusServiceUnavailable},
		{"market data inside a rejection", rule("symbol", apperrors.ErrMarketDataUnavailable), http.StatusServiceUnavailable},
		{"field validation", &validation.Error{Fields: map[string]string{"price": "price is required"}}, http.StatusBadRequest},
		{"market rule", rule("amount", apperrors.ErrInsufficientCash), http.StatusBadRequest},
		{"bulk row", &service.RowError{Row: 3, Err: rule("quantity", apperrors.ErrInsufficientShares)}, http.StatusBadRequest},
		{"duplicate entry", rule("occurredAt", apperrors.ErrDuplicateEntry), http.StatusConflict},
		{"username taken", apperrors.ErrUsernameTaken, http.StatusConflict},
		{"profile not found", apperrors.ErrProfileNotFound, http.StatusNotFound},
		{"company info not found", apperrors.ErrCompanyInfoNotFound, http.StatusNotFound},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			respondServiceError(w, req, "failed", tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}

	t.Run("bulk rejection reports the row and field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		w := httptest.NewRecorder()

		respondServiceError(w, req, "failed", &service.RowError{Row: 3, Err: rule("quantity", apperrors.ErrInsufficientShares)})

		var body struct {
			Error   string    `json:"error"`
			Details rejection `json:"details"`
		}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if body.Details.Row != 3 || body.Details.Field != "quantity" || body.Details.Reason != "because" {
			t.Errorf("Unexpected details: %+v", body.Details)
		}
	})
}

func TestParseJSON(t *testing.T) {
	type payload struct {
		Symbol string `json:"symbol"`
	}

	t.Run("decodes a valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"symbol":"AAPL"}`))

		got, err := parseJSON[payload](req)

		if err != nil {
			t.Fatalf("parseJSON() returned unexpected error: %v", err)
		}
		if got.Symbol != "AAPL" {
			t.Errorf("Expected AAPL, got %q", got.Symbol)
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"symbol":"AAPL","extra":1}`))

		if _, err := parseJSON[payload](req); err == nil {
			t.Error("Expected an error for an unknown field")
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"symbol":`))

		if _, err := parseJSON[payload](req); err == nil {
			t.Error("Expected an error for malformed JSON")
		}
	})
}
