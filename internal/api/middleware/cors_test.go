package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adithyabsk/portfoliohut/internal/api/middleware"
)

func TestNewCORS(t *testing.T) {
	handler := middleware.NewCORS([]string{"https://app.example"}).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/profile", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "X-API-Key, X-Time-Token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	t.Run("allowed origin may send the guard headers", func(t *testing.T) {
		w := preflight("https://app.example")

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
			t.Errorf("Expected the origin to be allowed, got %q", got)
		}
		allowed := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers"))
		if !strings.Contains(allowed, "x-api-key") || !strings.Contains(allowed, "x-time-token") {
			t.Errorf("Expected the guard headers to be allowed, got %q", allowed)
		}
	})

	t.Run("unknown origin is not allowed", func(t *testing.T) {
		w := preflight("https://evil.example")

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Expected no allow-origin header, got %q", got)
		}
	})
}
