package request

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adithyabsk/portfoliohut/internal/model"
)

// ParseLedgerFilters extracts and validates ledger listing filters from query
// parameters. All parameters are optional.
//
// Validation rules:
//   - kinds: comma-separated entry kinds (EQ, EC, IC)
//   - symbol: upper-cased ticker, or "-" for cash
//   - startDate/endDate: YYYY-MM-DD or RFC3339
//   - sortDir: "asc" or "desc" (defaults to "asc")
//   - limit: between 1 and 1000 (0 means no limit)
func ParseLedgerFilters(kindsParam, symbolParam, startDateParam, endDateParam, sortDirParam, limitParam string) (*model.LedgerFilters, error) {
	filters := &model.LedgerFilters{
		Symbol: strings.ToUpper(strings.TrimSpace(symbolParam)),
	}

	if kindsParam != "" {
		for _, k := range strings.Split(kindsParam, ",") {
			kind, err := model.ParseEntryKind(strings.TrimSpace(strings.ToUpper(k)))
			if err != nil {
				return nil, fmt.Errorf("invalid kind: %s", k)
			}
			filters.Kinds = append(filters.Kinds, kind)
		}
	}

	if startDateParam != "" {
		startTime, err := parseFilterTime(startDateParam)
		if err != nil {
			return nil, fmt.Errorf("invalid startDate format: %w", err)
		}
		filters.StartDate = &startTime
	}

	if endDateParam != "" {
		endTime, err := parseFilterTime(endDateParam)
		if err != nil {
			return nil, fmt.Errorf("invalid endDate format: %w", err)
		}
		filters.EndDate = &endTime
	}

	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, fmt.Errorf("invalid date range: endDate before startDate")
	}

	if sortDirParam != "" {
		sortDir := strings.ToLower(sortDirParam)
		if sortDir != "asc" && sortDir != "desc" {
			return nil, fmt.Errorf("invalid sortDir: must be 'asc' or 'desc'")
		}
		filters.SortDir = sortDir
	} else {
		filters.SortDir = "asc"
	}

	if limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil {
			return nil, fmt.Errorf("invalid limit: must be a number")
		}
		if limit < 1 || limit > 1000 {
			return nil, fmt.Errorf("invalid limit: must be between 1 and 1000")
		}
		filters.Limit = limit
	}

	return filters, nil
}

// parseFilterTime accepts YYYY-MM-DD and RFC3339.
func parseFilterTime(str string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05.000Z07:00"} {
		if t, err := time.Parse(layout, str); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date or datetime", str)
}
