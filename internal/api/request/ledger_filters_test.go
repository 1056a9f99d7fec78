package request

import (
	"testing"

	"github.com/adithyabsk/portfoliohut/internal/model"
)

func TestParseLedgerFilters(t *testing.T) {
	t.Run("default values when no parameters provided", func(t *testing.T) {
		filters, err := ParseLedgerFilters("", "", "", "", "", "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if filters.SortDir != "asc" {
			t.Errorf("Expected default SortDir 'asc', got '%s'", filters.SortDir)
		}
		if filters.Limit != 0 {
			t.Errorf("Expected no limit, got %d", filters.Limit)
		}
		if len(filters.Kinds) != 0 {
			t.Errorf("Expected empty Kinds, got %v", filters.Kinds)
		}
	})

	t.Run("multiple kinds are parsed case-insensitively", func(t *testing.T) {
		filters, err := ParseLedgerFilters("eq, EC", "", "", "", "", "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		expected := []model.EntryKind{model.KindEquity, model.KindExternalCash}
		if len(filters.Kinds) != len(expected) {
			t.Fatalf("Expected %d kinds, got %d", len(expected), len(filters.Kinds))
		}
		for i, k := range filters.Kinds {
			if k != expected[i] {
				t.Errorf("Expected kind %s at index %d, got %s", expected[i], i, k)
			}
		}
	})

	t.Run("invalid kind returns error", func(t *testing.T) {
		if _, err := ParseLedgerFilters("XX", "", "", "", "", ""); err == nil {
			t.Error("Expected error for invalid kind, got nil")
		}
	})

	t.Run("symbol is upper-cased", func(t *testing.T) {
		filters, err := ParseLedgerFilters("", " aapl ", "", "", "", "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if filters.Symbol != "AAPL" {
			t.Errorf("Expected symbol AAPL, got %q", filters.Symbol)
		}
	})

	t.Run("date range", func(t *testing.T) {
		filters, err := ParseLedgerFilters("", "", "2024-01-01", "2024-01-31T00:00:00Z", "", "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if filters.StartDate == nil || filters.StartDate.Format("2006-01-02") != "2024-01-01" {
			t.Errorf("Unexpected StartDate %v", filters.StartDate)
		}
		if filters.EndDate == nil || filters.EndDate.Format("2006-01-02") != "2024-01-31" {
			t.Errorf("Unexpected EndDate %v", filters.EndDate)
		}
	})

	t.Run("reversed date range returns error", func(t *testing.T) {
		if _, err := ParseLedgerFilters("", "", "2024-02-01", "2024-01-01", "", ""); err == nil {
			t.Error("Expected error for reversed range, got nil")
		}
	})

	t.Run("invalid date returns error", func(t *testing.T) {
		if _, err := ParseLedgerFilters("", "", "01/02/2024", "", "", ""); err == nil {
			t.Error("Expected error for invalid startDate, got nil")
		}
	})

	t.Run("sort direction", func(t *testing.T) {
		filters, err := ParseLedgerFilters("", "", "", "", "DESC", "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if filters.SortDir != "desc" {
			t.Errorf("Expected SortDir 'desc', got '%s'", filters.SortDir)
		}

		if _, err := ParseLedgerFilters("", "", "", "", "sideways", ""); err == nil {
			t.Error("Expected error for invalid sortDir, got nil")
		}
	})

	t.Run("limit bounds", func(t *testing.T) {
		tests := []struct {
			limit   string
			wantErr bool
		}{
			{"1", false},
			{"1000", false},
			{"0", true},
			{"1001", true},
			{"ten", true},
		}
		for _, tt := range tests {
			_, err := ParseLedgerFilters("", "", "", "", "", tt.limit)
			if (err != nil) != tt.wantErr {
				t.Errorf("limit %q: error = %v, wantErr %v", tt.limit, err, tt.wantErr)
			}
		}
	})
}
