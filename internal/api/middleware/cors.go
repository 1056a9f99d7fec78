package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// corsMaxAge is how long browsers may cache a preflight answer.
const corsMaxAge = 10 * time.Minute

// NewCORS allows the front ends in allowedOrigins to read every endpoint and
// to send the write-guard headers. Credentials are not allowed: the guard
// travels in headers, never in cookies.
func NewCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", apiKeyHeader, timeTokenHeader},
		ExposedHeaders:   []string{chimw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           int(corsMaxAge.Seconds()),
	})
}
