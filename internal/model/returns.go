package model

import "time"

// ReturnPoint is one day's time-weighted return. ReturnPct is a fraction
// (0.01 is one percent).
type ReturnPoint struct {
	Date      time.Time `json:"date"`
	ReturnPct float64   `json:"returnPct"`
}

// CumulativePoint is the compounded return from the start of the series up to Date.
type CumulativePoint struct {
	Date          time.Time `json:"date"`
	DailyReturn   float64   `json:"dailyReturn"`
	CumulativePct float64   `json:"cumulativePct"`
}

// LatestReturn is the most recent cumulative return. ReturnPct is nil when
// there is no return yet.
type LatestReturn struct {
	OwnerID   string     `json:"ownerId"`
	ReturnPct *float64   `json:"returnPct"`
	AsOf      *time.Time `json:"asOf,omitempty"`
}
