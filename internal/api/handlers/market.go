package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adithyabsk/portfoliohut/internal/api/response"
	"github.com/adithyabsk/portfoliohut/internal/service"
	"github.com/adithyabsk/portfoliohut/internal/validation"
)

// MarketHandler serves cached market data.
type MarketHandler struct {
	marketService *service.MarketDataService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketService *service.MarketDataService) *MarketHandler {
	return &MarketHandler{marketService: marketService}
}

// Bars handles GET requests for a symbol's daily bars, oldest first.
//
// Endpoint: GET /api/market/{symbol}/bars
// Response: 200 OK with array of model.PriceBar (empty for unknown symbols)
// Error: 400 Bad Request if the symbol is malformed
// Error: 503 Service Unavailable if the provider fails and nothing is cached
func (h *MarketHandler) Bars(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := validation.ValidateSymbol(symbol); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid symbol", err.Error())
		return
	}

	bars, err := h.marketService.GetTickerBars(r.Context(), symbol)
	if err != nil {
		respondServiceError(w, r, "failed to retrieve market data", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, bars)
}

// Info handles GET requests for a symbol's company metadata.
//
// Endpoint: GET /api/market/{symbol}/info
// Response: 200 OK with model.CompanyInfo
// Error: 404 Not Found if the provider has no metadata for the symbol
func (h *MarketHandler) Info(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if err := validation.ValidateSymbol(symbol); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid symbol", err.Error())
		return
	}

	info, err := h.marketService.GetCompanyInfo(r.Context(), symbol)
	if err != nil {
		respondServiceError(w, r, "failed to retrieve company info", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, info)
}
