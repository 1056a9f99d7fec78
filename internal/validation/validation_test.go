package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/adithyabsk/portfoliohut/internal/api/request"
	"github.com/adithyabsk/portfoliohut/internal/apperrors"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	return loc
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %T (%v)", err, err)
	}
	return verr.Fields
}

func TestValidateUUID(t *testing.T) {
	if err := ValidateUUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"); err != nil {
		t.Errorf("expected valid UUID, got %v", err)
	}
	if err := ValidateUUID("not-a-uuid"); !errors.Is(err, apperrors.ErrInvalidUUID) {
		t.Errorf("expected ErrInvalidUUID, got %v", err)
	}
	if err := ValidateUUIDs(nil); !errors.Is(err, ErrEmptySlice) {
		t.Errorf("expected ErrEmptySlice, got %v", err)
	}
	err := ValidateUUIDs([]string{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", "nope"})
	if !errors.Is(err, apperrors.ErrInvalidUUID) || !strings.HasPrefix(err.Error(), "[1]") {
		t.Errorf("expected the second id to be reported, got %v", err)
	}
}

func TestParseOccurredAt(t *testing.T) {
	loc := newYork(t)

	t.Run("local layout is read in the exchange zone", func(t *testing.T) {
		got, err := ParseOccurredAt("2024-03-04 10:15", loc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2024, 3, 4, 10, 15, 0, 0, loc)
		if !got.Equal(want) || got.Location() != loc {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("RFC3339 is converted to the exchange zone", func(t *testing.T) {
		got, err := ParseOccurredAt("2024-03-04T15:15:00Z", loc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Hour() != 10 || got.Minute() != 15 {
			t.Errorf("expected 10:15 local, got %v", got)
		}
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		if _, err := ParseOccurredAt("yesterday", loc); err == nil {
			t.Error("expected error")
		}
		if _, err := ParseOccurredAt("", loc); err == nil {
			t.Error("expected error for empty timestamp")
		}
	})
}

func TestParsePositiveAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"150.25", "150.25", false},
		{" 10 ", "10", false},
		{"0", "", true},
		{"-5", "", true},
		{"abc", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePositiveAmount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

// TestValidateTrade tests request-level validation of equity trades.
//
// WHY: Malformed trades must be rejected with field-level messages before the
// service spends a market data lookup on them.
func TestValidateTrade(t *testing.T) {
	loc := newYork(t)
	valid := request.TradeRequest{
		Symbol:     "aapl",
		Side:       "buy",
		Quantity:   10,
		Price:      "150.00",
		OccurredAt: "2024-03-04 10:15",
	}

	t.Run("valid trade", func(t *testing.T) {
		if err := ValidateTrade(valid, loc); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("all fields invalid", func(t *testing.T) {
		// Setup
		req := request.TradeRequest{Symbol: "", Side: "short", Quantity: 0, Price: "-1", OccurredAt: "soon"}

		// Execute
		err := ValidateTrade(req, loc)

		// Assert
		fields := fieldsOf(t, err)
		for _, f := range []string{"symbol", "side", "quantity", "price", "occurredAt"} {
			if _, ok := fields[f]; !ok {
				t.Errorf("expected error for field %s, got %v", f, fields)
			}
		}
	})

	t.Run("symbol with spaces", func(t *testing.T) {
		req := valid
		req.Symbol = "AA PL"
		fields := fieldsOf(t, ValidateTrade(req, loc))
		if _, ok := fields["symbol"]; !ok {
			t.Errorf("expected symbol error, got %v", fields)
		}
	})
}

func TestValidateCash(t *testing.T) {
	loc := newYork(t)

	if err := ValidateCash(request.CashRequest{Side: "withdrawal", Amount: "100", OccurredAt: "2024-03-02 12:00"}, loc); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	fields := fieldsOf(t, ValidateCash(request.CashRequest{Side: "gift", Amount: "0"}, loc))
	if len(fields) != 3 {
		t.Errorf("expected side, amount and occurredAt errors, got %v", fields)
	}
}

func TestValidateBulk(t *testing.T) {
	loc := newYork(t)

	t.Run("empty request", func(t *testing.T) {
		fields := fieldsOf(t, ValidateBulk(request.BulkRequest{}, loc))
		if _, ok := fields["rows"]; !ok {
			t.Errorf("expected rows error, got %v", fields)
		}
	})

	t.Run("errors are keyed by row number", func(t *testing.T) {
		// Setup
		req := request.BulkRequest{Rows: []request.BulkRowRequest{
			{Action: "deposit", Price: "1000", OccurredAt: "2024-03-01 10:00"},
			{Action: "buy", Symbol: "AAPL", Quantity: 1, Price: "abc", OccurredAt: "2024-03-01 10:00"},
			{Action: "withdraw", Price: "0", OccurredAt: "2024-03-01 10:00"},
			{Action: "transfer", Price: "1", OccurredAt: "2024-03-01 10:00"},
		}}

		// Execute
		fields := fieldsOf(t, ValidateBulk(req, loc))

		// Assert
		for _, key := range []string{"rows[2].price", "rows[3].price", "rows[4].action"} {
			if _, ok := fields[key]; !ok {
				t.Errorf("expected %s in %v", key, fields)
			}
		}
		for key := range fields {
			if strings.HasPrefix(key, "rows[1].") {
				t.Errorf("row 1 is valid but got %s", key)
			}
		}
	})
}

func TestValidateCreateProfile(t *testing.T) {
	tests := []struct {
		name    string
		req     request.CreateProfileRequest
		wantErr []string
	}{
		{"valid", request.CreateProfileRequest{Username: "warren_b", DisplayName: "Warren"}, nil},
		{"private", request.CreateProfileRequest{Username: "quiet", DisplayName: "Q", Visibility: "PRIVATE"}, nil},
		{"missing fields", request.CreateProfileRequest{}, []string{"username", "displayName"}},
		{"bad username", request.CreateProfileRequest{Username: "a b", DisplayName: "x"}, []string{"username"}},
		{"bad visibility", request.CreateProfileRequest{Username: "abc", DisplayName: "x", Visibility: "friends"}, []string{"visibility"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCreateProfile(tt.req)
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			fields := fieldsOf(t, err)
			for _, f := range tt.wantErr {
				if _, ok := fields[f]; !ok {
					t.Errorf("expected error for %s, got %v", f, fields)
				}
			}
		})
	}
}
