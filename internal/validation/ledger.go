package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/adithyabsk/portfoliohut/internal/api/request"
	"github.com/adithyabsk/portfoliohut/internal/model"
)

// MaxBulkRows caps a single bulk upload.
const MaxBulkRows = 5000

var symbolPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-^=]{0,19}$`)

// ValidateSymbol checks a ticker after upper-casing it.
func ValidateSymbol(symbol string) error {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return fmt.Errorf("symbol is required")
	}
	if !symbolPattern.MatchString(s) {
		return fmt.Errorf("invalid symbol: %s", symbol)
	}
	return nil
}

// ValidateTrade validates an equity trade request.
//
// Required fields:
//   - symbol: ticker of at most 20 characters
//   - side: buy or sell
//   - quantity: positive whole number of shares
//   - price: positive decimal
//   - occurredAt: RFC3339 or "2006-01-02 15:04" in loc
//
// Market rules (session, price range, balances) are checked by the service.
func ValidateTrade(req request.TradeRequest, loc *time.Location) error {
	errors := make(map[string]string)

	if err := ValidateSymbol(req.Symbol); err != nil {
		errors["symbol"] = err.Error()
	}
	if _, err := model.ParseTradeSide(req.Side); err != nil {
		errors["side"] = fmt.Sprintf("invalid side: %s", req.Side)
	}
	if req.Quantity <= 0 {
		errors["quantity"] = "quantity must be positive"
	}
	if _, err := ParsePositiveAmount(req.Price); err != nil {
		errors["price"] = "price " + err.Error()
	}
	if _, err := ParseOccurredAt(req.OccurredAt, loc); err != nil {
		errors["occurredAt"] = err.Error()
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateCash validates a deposit or withdrawal request.
func ValidateCash(req request.CashRequest, loc *time.Location) error {
	errors := make(map[string]string)

	if _, err := model.ParseCashSide(req.Side); err != nil {
		errors["side"] = fmt.Sprintf("invalid side: %s", req.Side)
	}
	if _, err := ParsePositiveAmount(req.Amount); err != nil {
		errors["amount"] = "amount " + err.Error()
	}
	if _, err := ParseOccurredAt(req.OccurredAt, loc); err != nil {
		errors["occurredAt"] = err.Error()
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateBulk validates every row of a bulk request. Field keys carry the
// 1-based row number, as in "rows[3].price".
func ValidateBulk(req request.BulkRequest, loc *time.Location) error {
	if len(req.Rows) == 0 {
		return &Error{Fields: map[string]string{"rows": "at least one row is required"}}
	}
	if len(req.Rows) > MaxBulkRows {
		return &Error{Fields: map[string]string{"rows": fmt.Sprintf("at most %d rows are allowed", MaxBulkRows)}}
	}

	errors := make(map[string]string)
	for i, row := range req.Rows {
		if err := ValidateBulkRow(row, loc); err != nil {
			for field, msg := range err.Fields {
				errors[fmt.Sprintf("rows[%d].%s", i+1, field)] = msg
			}
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateBulkRow validates one bulk row as a trade or a cash movement
// depending on its action.
func ValidateBulkRow(row request.BulkRowRequest, loc *time.Location) *Error {
	action := strings.ToLower(strings.TrimSpace(row.Action))

	var err error
	if _, sideErr := model.ParseTradeSide(action); sideErr == nil {
		err = ValidateTrade(request.TradeRequest{
			Symbol:     row.Symbol,
			Side:       action,
			Quantity:   row.Quantity,
			Price:      row.Price,
			OccurredAt: row.OccurredAt,
		}, loc)
	} else if _, sideErr := model.ParseCashSide(action); sideErr == nil {
		err = ValidateCash(request.CashRequest{
			Side:       action,
			Amount:     row.Price,
			OccurredAt: row.OccurredAt,
		}, loc)
	} else {
		return &Error{Fields: map[string]string{"action": fmt.Sprintf("invalid action: %s", row.Action)}}
	}

	if err == nil {
		return nil
	}
	verr := err.(*Error)
	if msg, ok := verr.Fields["amount"]; ok {
		delete(verr.Fields, "amount")
		verr.Fields["price"] = msg
	}
	if msg, ok := verr.Fields["side"]; ok {
		delete(verr.Fields, "side")
		verr.Fields["action"] = msg
	}
	return verr
}
