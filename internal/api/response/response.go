// Package response writes JSON bodies for the HTTP handlers.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/adithyabsk/portfoliohut/internal/logger"
)

// ErrorResponse is the body of every non-2xx reply. Details carries field
// errors or the rejected row of a ledger write.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON writes status and, unless data is nil, data encoded as JSON.
// The header is already sent when encoding fails, so the error is only logged.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.L.Error("failed to encode JSON response", "error", err)
		}
	}
}

// RespondError writes an ErrorResponse. An empty details string is dropped.
//
//	response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
func RespondError(w http.ResponseWriter, status int, message string, details any) {
	if s, ok := details.(string); ok && s == "" {
		details = nil
	}
	RespondJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}
