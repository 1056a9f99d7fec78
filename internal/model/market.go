package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar is one day of OHLC data for a symbol. Date is midnight UTC of the
// exchange trading date.
type PriceBar struct {
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
	Dividends decimal.Decimal `json:"dividends"`
	Splits    float64         `json:"splits"`
}

// CompanyInfo is descriptive metadata about a listed company.
type CompanyInfo struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Sector    string    `json:"sector,omitempty"`
	Website   string    `json:"website,omitempty"`
	LogoURL   string    `json:"logoUrl,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	FetchedAt time.Time `json:"fetchedAt"`
}
