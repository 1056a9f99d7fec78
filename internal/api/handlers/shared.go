package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/adithyabsk/portfoliohut/internal/api/response"
	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/logger"
	"github.com/adithyabsk/portfoliohut/internal/service"
	"github.com/adithyabsk/portfoliohut/internal/validation"
)

// maxBodyBytes caps JSON and CSV request bodies.
const maxBodyBytes = 8 << 20

// parseJSON decodes the request body into T, rejecting unknown fields.
func parseJSON[T any](r *http.Request) (T, error) {
	var req T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("failed to decode request body: %w", err)
	}
	return req, nil
}

// rejection is the details payload of a rejected ledger write.
type rejection struct {
	Row    int    `json:"row,omitempty"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// respondServiceError maps a service error onto an HTTP status. fallback is
// the message used for unexpected failures.
//
//	market data unavailable       -> 503
//	validation / rejected entry   -> 400
//	duplicate / username taken    -> 409
//	not found                     -> 404
//	anything else                 -> 500
func respondServiceError(w http.ResponseWriter, r *http.Request, fallback string, err error) {
	var (
		rowErr  *service.RowError
		ruleErr *service.ValidationError
		verr    *validation.Error
	)

	switch {
	case errors.Is(err, apperrors.ErrMarketDataUnavailable):
		response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrMarketDataUnavailable.Error(), err.Error())
	case errors.As(err, &verr):
		response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, apperrors.ErrDuplicateEntry):
		response.RespondError(w, http.StatusConflict, apperrors.ErrDuplicateEntry.Error(), describe(err))
	case errors.Is(err, apperrors.ErrUsernameTaken):
		response.RespondError(w, http.StatusConflict, apperrors.ErrUsernameTaken.Error(), "")
	case errors.As(err, &rowErr), errors.As(err, &ruleErr):
		response.RespondError(w, http.StatusBadRequest, "transaction rejected", describe(err))
	case errors.Is(err, apperrors.ErrProfileNotFound),
		errors.Is(err, apperrors.ErrCompanyInfoNotFound),
		errors.Is(err, apperrors.ErrPriceBarNotFound):
		response.RespondError(w, http.StatusNotFound, rootMessage(err), err.Error())
	default:
		logger.FromContext(r.Context()).Error(fallback, "error", err)
		response.RespondError(w, http.StatusInternalServerError, fallback, err.Error())
	}
}

func describe(err error) rejection {
	var out rejection
	var rowErr *service.RowError
	if errors.As(err, &rowErr) {
		out.Row = rowErr.Row
		err = rowErr.Err
	}
	var ruleErr *service.ValidationError
	if errors.As(err, &ruleErr) {
		out.Field = ruleErr.Field
		out.Reason = ruleErr.Reason
		return out
	}
	out.Reason = err.Error()
	return out
}

func rootMessage(err error) string {
	for _, target := range []error{
		apperrors.ErrProfileNotFound,
		apperrors.ErrCompanyInfoNotFound,
		apperrors.ErrPriceBarNotFound,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}
