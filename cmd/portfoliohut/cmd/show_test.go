package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adithyabsk/portfoliohut/internal/model"
)

func TestWriteSummary(t *testing.T) {
	profile := model.Profile{Username: "ada", DisplayName: "Ada"}
	details := model.PortfolioDetails{
		Cash:        decimal.RequireFromString("81000"),
		EquityValue: decimal.RequireFromString("20100"),
		TotalValue:  decimal.RequireFromString("101100"),
		Holdings: []model.ValuedHolding{{
			Symbol:       "AAPL",
			Quantity:     1200,
			AverageCost:  decimal.RequireFromString("150"),
			LastClose:    decimal.RequireFromString("160"),
			MarketValue:  decimal.RequireFromString("192000"),
			UnrealizedGL: decimal.RequireFromString("12000"),
			Weight:       0.5,
		}},
	}

	t.Run("with a return", func(t *testing.T) {
		pct := 0.1234
		asOf := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
		var buf bytes.Buffer

		if err := writeSummary(&buf, profile, details, model.LatestReturn{ReturnPct: &pct, AsOf: &asOf}); err != nil {
			t.Fatalf("writeSummary() returned unexpected error: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"Ada (@ada)",
			"Return: 12.34% as of 2024-01-05",
			"1,200",
			"$192,000.00",
			"50.00%",
			"Total:  $101,100.00",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("Expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("without a return", func(t *testing.T) {
		var buf bytes.Buffer

		if err := writeSummary(&buf, profile, model.PortfolioDetails{}, model.LatestReturn{}); err != nil {
			t.Fatalf("writeSummary() returned unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "Return: n/a") {
			t.Errorf("Expected n/a return, got:\n%s", buf.String())
		}
	})
}
