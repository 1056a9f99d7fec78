package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adithyabsk/portfoliohut/internal/api/request"
	"github.com/adithyabsk/portfoliohut/internal/api/response"
	"github.com/adithyabsk/portfoliohut/internal/service"
)

// LedgerHandler handles ledger writes and reads for one owner.
// It parses requests and delegates validation and recording to the LedgerService.
type LedgerHandler struct {
	ledgerService *service.LedgerService
	importService *service.ImportService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerService *service.LedgerService, importService *service.ImportService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		importService: importService,
	}
}

// RecordTrade handles POST requests to record an equity trade.
//
// Endpoint: POST /api/profile/{uuid}/trade
// Request Body: TradeRequest (symbol, side, quantity, price, occurredAt)
// Response: 201 Created with the EQUITY entry and its INTERNAL_CASH pair
// Error: 400 Bad Request if the body is invalid or the trade is rejected
// Error: 404 Not Found if the profile does not exist
// Error: 409 Conflict if an identical entry exists at the same timestamp
// Error: 503 Service Unavailable if market data cannot be loaded
func (h *LedgerHandler) RecordTrade(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.TradeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	trade, err := service.TradeFromRequest(chi.URLParam(r, "uuid"), req, h.ledgerService.Location())
	if err != nil {
		respondServiceError(w, r, "failed to record trade", err)
		return
	}

	entries, err := h.ledgerService.RecordEquityTrade(r.Context(), trade)
	if err != nil {
		respondServiceError(w, r, "failed to record trade", err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, entries)
}

// RecordCash handles POST requests to record a deposit or withdrawal.
//
// Endpoint: POST /api/profile/{uuid}/cash
// Request Body: CashRequest (side, amount, occurredAt)
// Response: 201 Created with the EXTERNAL_CASH entry
func (h *LedgerHandler) RecordCash(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CashRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	tx, err := service.CashFromRequest(chi.URLParam(r, "uuid"), req, h.ledgerService.Location())
	if err != nil {
		respondServiceError(w, r, "failed to record cash transaction", err)
		return
	}

	entry, err := h.ledgerService.RecordCashTransaction(r.Context(), tx)
	if err != nil {
		respondServiceError(w, r, "failed to record cash transaction", err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, entry)
}

// RecordBulk handles POST requests carrying many rows at once. Either every
// row is recorded or none is.
//
// Endpoint: POST /api/profile/{uuid}/bulk
// Request Body: BulkRequest (rows)
// Response: 201 Created with service.BulkResult
// Error: 400 Bad Request with the failing row number if any row is rejected
func (h *LedgerHandler) RecordBulk(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.BulkRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	rows, err := service.BulkRowsFromRequest(req.Rows, h.ledgerService.Location())
	if err != nil {
		respondServiceError(w, r, "failed to record bulk upload", err)
		return
	}

	result, err := h.ledgerService.BulkRecord(r.Context(), chi.URLParam(r, "uuid"), rows)
	if err != nil {
		respondServiceError(w, r, "failed to record bulk upload", err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, result)
}

// ImportCSV handles POST requests whose body is a CSV file in either the
// native or the broker export layout.
//
// Endpoint: POST /api/profile/{uuid}/import
// Request Body: text/csv
// Response: 201 Created with service.BulkResult
func (h *LedgerHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	body := io.LimitReader(r.Body, maxBodyBytes)

	result, err := h.importService.Import(r.Context(), chi.URLParam(r, "uuid"), body)
	if err != nil {
		respondServiceError(w, r, "failed to import csv", err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, result)
}

// Ledger handles GET requests for an owner's entries.
//
// Endpoint: GET /api/profile/{uuid}/ledger
// Query Parameters: kinds, symbol, startDate, endDate, sortDir, limit (all optional)
// Response: 200 OK with array of model.LedgerEntry
// Error: 400 Bad Request if a filter is invalid
// Error: 404 Not Found if the profile does not exist
func (h *LedgerHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters, err := request.ParseLedgerFilters(
		q.Get("kinds"),
		q.Get("symbol"),
		q.Get("startDate"),
		q.Get("endDate"),
		q.Get("sortDir"),
		q.Get("limit"),
	)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameters", err.Error())
		return
	}

	entries, err := h.ledgerService.GetLedger(r.Context(), chi.URLParam(r, "uuid"), filters)
	if err != nil {
		respondServiceError(w, r, "failed to retrieve ledger", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, entries)
}
