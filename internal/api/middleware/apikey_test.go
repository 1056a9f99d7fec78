package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adithyabsk/portfoliohut/internal/api/middleware"
)

func TestAPIKeyMiddleware(t *testing.T) {
	const testAPIKey = "test-api-key-12345"

	validToken, err := middleware.GenerateTimeToken(testAPIKey)
	if err != nil {
		t.Fatalf("GenerateTimeToken() returned unexpected error: %v", err)
	}
	foreignToken, err := middleware.GenerateTimeToken("some-other-key")
	if err != nil {
		t.Fatalf("GenerateTimeToken() returned unexpected error: %v", err)
	}

	tests := []struct {
		name        string
		configured  string
		apiKey      string
		timeToken   string
		wantStatus  int
		wantDetails string
	}{
		{
			name:        "rejects request without API key",
			configured:  testAPIKey,
			wantStatus:  http.StatusUnauthorized,
			wantDetails: "Missing API key",
		},
		{
			name:        "rejects request with invalid API key",
			configured:  testAPIKey,
			apiKey:      "invalid",
			wantStatus:  http.StatusUnauthorized,
			wantDetails: "Invalid API key",
		},
		{
			name:        "rejects request without time token",
			configured:  testAPIKey,
			apiKey:      testAPIKey,
			wantStatus:  http.StatusUnauthorized,
			wantDetails: "Missing Time token",
		},
		{
			name:        "rejects malformed time token",
			configured:  testAPIKey,
			apiKey:      testAPIKey,
			timeToken:   "invalid",
			wantStatus:  http.StatusUnauthorized,
			wantDetails: "Time token is invalid or expired",
		},
		{
			name:        "rejects time token signed with another key",
			configured:  testAPIKey,
			apiKey:      testAPIKey,
			timeToken:   foreignToken,
			wantStatus:  http.StatusUnauthorized,
			wantDetails: "Time token is invalid or expired",
		},
		{
			name:       "allows request with valid API key and time token",
			configured: testAPIKey,
			apiKey:     testAPIKey,
			timeToken:  validToken,
			wantStatus: http.StatusOK,
		},
		{
			name:        "fails when no API key is configured",
			wantStatus:  http.StatusInternalServerError,
			wantDetails: "Authentication not loaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})
			mw := middleware.APIKeyMiddleware(tt.configured, time.Minute)(next)

			req := httptest.NewRequest(http.MethodPost, "/test", nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			if tt.timeToken != "" {
				req.Header.Set("X-Time-Token", tt.timeToken)
			}
			w := httptest.NewRecorder()

			mw.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, w.Code)
			}
			if handlerCalled != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handlerCalled = %v, want %v", handlerCalled, tt.wantStatus == http.StatusOK)
			}
			if tt.wantDetails == "" {
				return
			}

			var response map[string]string
			//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
			json.NewDecoder(w.Body).Decode(&response)
			if response["details"] != tt.wantDetails {
				t.Errorf("Expected '%s' error, got '%s'", tt.wantDetails, response["details"])
			}
		})
	}
}
