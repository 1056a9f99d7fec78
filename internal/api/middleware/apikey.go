package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/adithyabsk/portfoliohut/internal/api/response"
	"github.com/adithyabsk/portfoliohut/internal/logger"
)

// DefaultTimeTokenTTL is how long a time token stays valid when no TTL is configured.
const DefaultTimeTokenTTL = 5 * time.Minute

const (
	apiKeyHeader    = "X-API-Key"
	timeTokenHeader = "X-Time-Token"
)

// timeTokenKey derives the fernet key used for time tokens from the API key.
func timeTokenKey(apiKey string) *fernet.Key {
	k := fernet.Key(sha256.Sum256([]byte(apiKey)))
	return &k
}

// GenerateTimeToken returns a fernet token carrying the current time, signed
// with a key derived from apiKey. Clients send it as X-Time-Token.
func GenerateTimeToken(apiKey string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(strconv.FormatInt(time.Now().Unix(), 10)), timeTokenKey(apiKey))
	if err != nil {
		return "", err
	}
	return string(tok), nil
}

// APIKeyMiddleware guards write endpoints. A request must carry the shared
// key in X-API-Key and a time token younger than ttl in X-Time-Token.
// An empty apiKey rejects every request with 500.
func APIKeyMiddleware(apiKey string, ttl time.Duration) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = DefaultTimeTokenTTL
	}
	keys := []*fernet.Key{timeTokenKey(apiKey)}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				logger.FromContext(r.Context()).Error("write endpoint called without a configured INTERNAL_API_KEY")
				response.RespondError(w, http.StatusInternalServerError, "authentication error", "Authentication not loaded")
				return
			}

			provided := r.Header.Get(apiKeyHeader)
			if provided == "" {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing API key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
				return
			}

			token := r.Header.Get(timeTokenHeader)
			if token == "" {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing Time token")
				return
			}
			if fernet.VerifyAndDecrypt([]byte(token), ttl, keys) == nil {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Time token is invalid or expired")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
