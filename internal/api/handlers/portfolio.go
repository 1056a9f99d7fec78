package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/adithyabsk/portfoliohut/internal/api/response"
	"github.com/adithyabsk/portfoliohut/internal/service"
)

// PortfolioHandler serves an owner's holdings.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

// Snapshot handles GET requests for the stored snapshot: the cash row first,
// then one row per open position with its average cost.
//
// Endpoint: GET /api/profile/{uuid}/snapshot
// Response: 200 OK with model.Snapshot
// Error: 404 Not Found if the profile does not exist
func (h *PortfolioHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.portfolioService.GetSnapshot(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, r, "failed to retrieve snapshot", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, snap)
}

// Details handles GET requests for the holdings valued at their latest close.
// The optional top parameter keeps only the largest positions.
//
// Endpoint: GET /api/profile/{uuid}/portfolio?top=N
// Response: 200 OK with model.PortfolioDetails
// Error: 400 Bad Request if top is not a positive number
// Error: 503 Service Unavailable if a holding has no market data
func (h *PortfolioHandler) Details(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "uuid")

	top := 0
	if s := r.URL.Query().Get("top"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			response.RespondError(w, http.StatusBadRequest, "invalid query parameters", "top must be a positive number")
			return
		}
		top = n
	}

	details, err := h.portfolioService.TopHoldings(r.Context(), ownerID, top)
	if err != nil {
		respondServiceError(w, r, "failed to value portfolio", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, details)
}
