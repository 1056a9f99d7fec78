package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adithyabsk/portfoliohut/internal/api/response"
	"github.com/adithyabsk/portfoliohut/internal/service"
)

// ReturnsHandler serves return series.
type ReturnsHandler struct {
	returnsService *service.ReturnsService
}

// NewReturnsHandler creates a new ReturnsHandler.
func NewReturnsHandler(returnsService *service.ReturnsService) *ReturnsHandler {
	return &ReturnsHandler{returnsService: returnsService}
}

// Returns handles GET requests for the daily return series with its running
// cumulative return. Days without a defined return are absent.
//
// Endpoint: GET /api/profile/{uuid}/returns
// Response: 200 OK with array of model.CumulativePoint
func (h *ReturnsHandler) Returns(w http.ResponseWriter, r *http.Request) {
	series, err := h.returnsService.GetCumulativeReturns(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, r, "failed to retrieve returns", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, series)
}

// Latest handles GET requests for the most recent cumulative return.
// returnPct is null when the owner has no return yet.
//
// Endpoint: GET /api/profile/{uuid}/returns/latest
// Response: 200 OK with model.LatestReturn
func (h *ReturnsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	latest, err := h.returnsService.GetLatestReturn(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, r, "failed to retrieve returns", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, latest)
}

// Benchmark handles GET requests for the benchmark index's cumulative return.
//
// Endpoint: GET /api/market/benchmark?from=YYYY-MM-DD
// Response: 200 OK with array of model.CumulativePoint
// Error: 400 Bad Request if from is missing or not a date
// Error: 503 Service Unavailable if the index has no market data
func (h *ReturnsHandler) Benchmark(w http.ResponseWriter, r *http.Request) {
	fromParam := r.URL.Query().Get("from")
	if fromParam == "" {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameters", "from is required")
		return
	}
	from, err := time.Parse("2006-01-02", fromParam)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameters", "from must be YYYY-MM-DD")
		return
	}

	series, err := h.returnsService.GetBenchmarkReturns(r.Context(), from)
	if err != nil {
		respondServiceError(w, r, "failed to retrieve benchmark", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, series)
}
