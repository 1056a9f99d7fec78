package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adithyabsk/portfoliohut/internal/api/request"
	"github.com/adithyabsk/portfoliohut/internal/logger"
	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/validation"
)

// legacyCloseTime is the time of day given to rows of the broker export,
// which carries dates only.
const legacyCloseTime = "16:00"

var (
	importColumns = []string{"action", "date_time", "price", "ticker", "quantity"}
	legacyColumns = []string{"date", "symbol", "price", "quantity", "amount"}
)

// ImportService turns CSV uploads into bulk ledger writes.
//
// Two layouts are accepted:
//
//	action,date_time,price,ticker,quantity
//	DATE,SYMBOL,PRICE,QUANTITY,AMOUNT
//
// The second is a broker export: dates are MM/DD/YYYY and stamped at the
// session close, a negative AMOUNT is a buy and a positive one a sell, and
// rows without a SYMBOL are cash movements signed by AMOUNT.
type ImportService struct {
	ledger   *LedgerService
	sessions WallClock
	loc      *time.Location
}

// WallClock places a time of day on a date in the exchange time zone.
type WallClock interface {
	At(date time.Time, clock string) (time.Time, error)
	Location() *time.Location
}

// NewImportService creates a new ImportService.
func NewImportService(ledger *LedgerService, sessions WallClock) *ImportService {
	return &ImportService{ledger: ledger, sessions: sessions, loc: sessions.Location()}
}

// Import parses r and records every row for the owner as one bulk write.
func (s *ImportService) Import(ctx context.Context, ownerID string, r io.Reader) (BulkResult, error) {
	rows, err := s.ParseCSV(r)
	if err != nil {
		return BulkResult{}, err
	}
	bulk, err := BulkRowsFromRequest(rows, s.loc)
	if err != nil {
		return BulkResult{}, err
	}
	result, err := s.ledger.BulkRecord(ctx, ownerID, bulk)
	if err != nil {
		return BulkResult{}, err
	}

	logger.FromContext(ctx).Info("imported csv", "owner", ownerID, "rows", result.Recorded)
	return result, nil
}

// ParseCSV reads either layout into bulk rows. Field problems are reported
// together as a *validation.Error keyed "rows[N].field", N counting data
// rows from 1.
func (s *ImportService) ParseCSV(r io.Reader) ([]request.BulkRowRequest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &validation.Error{Fields: map[string]string{"file": "file is empty"}}
	}
	if err != nil {
		return nil, &validation.Error{Fields: map[string]string{"file": err.Error()}}
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}

	var parseRow func(get func(string) string) (request.BulkRowRequest, map[string]string)
	switch {
	case hasColumns(index, importColumns):
		parseRow = s.parseImportRow
	case hasColumns(index, legacyColumns):
		parseRow = s.parseLegacyRow
	default:
		return nil, &validation.Error{Fields: map[string]string{
			"header": fmt.Sprintf("expected columns %s or %s",
				strings.Join(importColumns, ","), strings.ToUpper(strings.Join(legacyColumns, ","))),
		}}
	}

	var rows []request.BulkRowRequest
	fieldErrors := make(map[string]string)
	for n := 1; ; n++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fieldErrors[fmt.Sprintf("rows[%d]", n)] = err.Error()
			continue
		}
		if isBlank(record) {
			n--
			continue
		}
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row, errs := parseRow(get)
		for field, msg := range errs {
			fieldErrors[fmt.Sprintf("rows[%d].%s", n, field)] = msg
		}
		if len(errs) == 0 {
			if verr := validation.ValidateBulkRow(row, s.loc); verr != nil {
				for field, msg := range verr.Fields {
					fieldErrors[fmt.Sprintf("rows[%d].%s", n, field)] = msg
				}
			}
		}
		rows = append(rows, row)
	}

	if len(fieldErrors) > 0 {
		return nil, &validation.Error{Fields: fieldErrors}
	}
	if len(rows) == 0 {
		return nil, &validation.Error{Fields: map[string]string{"rows": "at least one row is required"}}
	}
	if len(rows) > validation.MaxBulkRows {
		return nil, &validation.Error{Fields: map[string]string{"rows": fmt.Sprintf("at most %d rows are allowed", validation.MaxBulkRows)}}
	}
	return rows, nil
}

func (s *ImportService) parseImportRow(get func(string) string) (request.BulkRowRequest, map[string]string) {
	row := request.BulkRowRequest{
		Action:     strings.ToLower(get("action")),
		Symbol:     get("ticker"),
		Price:      get("price"),
		OccurredAt: get("date_time"),
	}
	errs := make(map[string]string)
	if q := get("quantity"); q != "" {
		qty, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			errs["quantity"] = fmt.Sprintf("invalid quantity %q", q)
		}
		row.Quantity = qty
	}
	return row, errs
}

func (s *ImportService) parseLegacyRow(get func(string) string) (request.BulkRowRequest, map[string]string) {
	errs := make(map[string]string)

	var row request.BulkRowRequest
	date, err := time.Parse("01/02/2006", get("date"))
	if err != nil {
		errs["date"] = fmt.Sprintf("invalid date %q, expected MM/DD/YYYY", get("date"))
	} else if at, err := s.sessions.At(date, legacyCloseTime); err != nil {
		errs["date"] = err.Error()
	} else {
		row.OccurredAt = at.Format("2006-01-02 15:04")
	}

	amount, err := decimal.NewFromString(get("amount"))
	if err != nil {
		errs["amount"] = fmt.Sprintf("invalid amount %q", get("amount"))
		return row, errs
	}

	symbol := get("symbol")
	if symbol == "" {
		row.Price = amount.Abs().String()
		row.Action = string(model.SideDeposit)
		if amount.IsNegative() {
			row.Action = string(model.SideWithdraw)
		}
		return row, errs
	}

	row.Symbol = symbol
	row.Price = get("price")
	row.Action = string(model.SideSell)
	if amount.IsNegative() {
		row.Action = string(model.SideBuy)
	}
	qty, err := strconv.ParseFloat(get("quantity"), 64)
	if err != nil || qty != float64(int64(qty)) {
		errs["quantity"] = fmt.Sprintf("invalid quantity %q, expected whole shares", get("quantity"))
		return row, errs
	}
	if qty < 0 {
		qty = -qty
	}
	row.Quantity = int64(qty)
	return row, errs
}

// BulkRowsFromRequest converts validated request rows into ledger rows.
// Rows that fail validation are reported as a *validation.Error.
func BulkRowsFromRequest(rows []request.BulkRowRequest, loc *time.Location) ([]BulkRow, error) {
	if err := validation.ValidateBulk(request.BulkRequest{Rows: rows}, loc); err != nil {
		return nil, err
	}

	out := make([]BulkRow, len(rows))
	for i, row := range rows {
		occurredAt, err := validation.ParseOccurredAt(row.OccurredAt, loc)
		if err != nil {
			return nil, err
		}
		price, err := validation.ParsePositiveAmount(row.Price)
		if err != nil {
			return nil, err
		}
		if side, err := model.ParseTradeSide(row.Action); err == nil {
			out[i] = BulkRow{Trade: &EquityTrade{
				Symbol:     row.Symbol,
				OccurredAt: occurredAt,
				Side:       side,
				Quantity:   row.Quantity,
				Price:      price,
			}}
			continue
		}
		side, err := model.ParseCashSide(row.Action)
		if err != nil {
			return nil, err
		}
		out[i] = BulkRow{Cash: &CashTransaction{
			OccurredAt: occurredAt,
			Side:       side,
			Amount:     price,
		}}
	}
	return out, nil
}

// TradeFromRequest validates req and converts it into an EquityTrade for ownerID.
func TradeFromRequest(ownerID string, req request.TradeRequest, loc *time.Location) (EquityTrade, error) {
	if err := validation.ValidateTrade(req, loc); err != nil {
		return EquityTrade{}, err
	}
	occurredAt, err := validation.ParseOccurredAt(req.OccurredAt, loc)
	if err != nil {
		return EquityTrade{}, err
	}
	price, err := validation.ParsePositiveAmount(req.Price)
	if err != nil {
		return EquityTrade{}, err
	}
	side, err := model.ParseTradeSide(req.Side)
	if err != nil {
		return EquityTrade{}, err
	}
	return EquityTrade{
		OwnerID:    ownerID,
		Symbol:     req.Symbol,
		OccurredAt: occurredAt,
		Side:       side,
		Quantity:   req.Quantity,
		Price:      price,
	}, nil
}

// CashFromRequest validates req and converts it into a CashTransaction for ownerID.
func CashFromRequest(ownerID string, req request.CashRequest, loc *time.Location) (CashTransaction, error) {
	if err := validation.ValidateCash(req, loc); err != nil {
		return CashTransaction{}, err
	}
	occurredAt, err := validation.ParseOccurredAt(req.OccurredAt, loc)
	if err != nil {
		return CashTransaction{}, err
	}
	amount, err := validation.ParsePositiveAmount(req.Amount)
	if err != nil {
		return CashTransaction{}, err
	}
	side, err := model.ParseCashSide(req.Side)
	if err != nil {
		return CashTransaction{}, err
	}
	return CashTransaction{OwnerID: ownerID, OccurredAt: occurredAt, Side: side, Amount: amount}, nil
}

func hasColumns(index map[string]int, cols []string) bool {
	for _, c := range cols {
		if _, ok := index[c]; !ok {
			return false
		}
	}
	return true
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
