package middleware

import (
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/adithyabsk/portfoliohut/internal/logger"
)

var stripNewlines = strings.NewReplacer("\n", "", "\r", "").Replace

// Logger writes one access log line per request and puts a logger tagged
// with the chi request id into the request context for handlers.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqLog := logger.L
		if id := chimw.GetReqID(r.Context()); id != "" {
			reqLog = reqLog.With("request_id", id)
		}
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(logger.ToContext(r.Context(), reqLog)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		reqLog.Info("http request",
			"method", stripNewlines(r.Method),
			"path", stripNewlines(r.URL.Path),
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
