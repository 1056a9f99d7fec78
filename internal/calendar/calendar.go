// Package calendar answers questions about exchange trading sessions.
//
// The default Exchange models the NYSE regular session: 09:30 to 16:00
// America/New_York, Monday to Friday, minus the full-day exchange holidays.
// Early closes are not modelled; a trade stamped between an early close and
// 16:00 passes the hours check but is still caught by the price-range check
// against that day's bar.
package calendar

import (
	"fmt"
	"time"
	_ "time/tzdata" // exchange time zones must resolve without system tzdata
)

// Calendar is the market-hours fact source consumed by validation and the
// market data cache.
type Calendar interface {
	Location() *time.Location
	IsTradingDay(date time.Time) bool
	IsOpenAt(t time.Time) bool
	HasSessionBetween(after, now time.Time) bool
	SessionClose(date time.Time) time.Time
}

// Exchange is a fixed-hours exchange calendar.
type Exchange struct {
	loc        *time.Location
	openMin    int // minutes after midnight
	closeMin   int
	extraClose map[string]bool
}

// NewNYSE returns the NYSE calendar with rule-based holidays plus any extra
// closed dates (YYYY-MM-DD) given.
func NewNYSE(tz string, extraClosed []string) (*Exchange, error) {
	if tz == "" {
		tz = "America/New_York"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load exchange time zone %q: %w", tz, err)
	}
	extra := make(map[string]bool, len(extraClosed))
	for _, d := range extraClosed {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("invalid holiday %q: %w", d, err)
		}
		extra[d] = true
	}
	return &Exchange{
		loc:        loc,
		openMin:    9*60 + 30,
		closeMin:   16 * 60,
		extraClose: extra,
	}, nil
}

// Location returns the exchange time zone.
func (e *Exchange) Location() *time.Location {
	return e.loc
}

// IsTradingDay reports whether the calendar date of date (read in its own
// location) is a weekday without a holiday.
func (e *Exchange) IsTradingDay(date time.Time) bool {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	key := day.Format("2006-01-02")
	if e.extraClose[key] {
		return false
	}
	if isNYSEHoliday(day) {
		return false
	}
	return true
}

// IsOpenAt reports whether t falls inside a regular session, bounds inclusive.
func (e *Exchange) IsOpenAt(t time.Time) bool {
	local := t.In(e.loc)
	if !e.IsTradingDay(local) {
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	if minute == e.closeMin && (local.Second() > 0 || local.Nanosecond() > 0) {
		return false
	}
	return minute >= e.openMin && minute <= e.closeMin
}

// HasSessionBetween reports whether a session opened strictly after the date
// of after and no later than now.
func (e *Exchange) HasSessionBetween(after, now time.Time) bool {
	local := now.In(e.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	y, m, d := after.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	for ; !day.After(today); day = day.AddDate(0, 0, 1) {
		if !e.IsTradingDay(day) {
			continue
		}
		if day.Before(today) {
			return true
		}
		return local.Hour()*60+local.Minute() >= e.openMin
	}
	return false
}

// At combines a calendar date with a wall-clock time ("15:04" or "15:04:05")
// in the exchange time zone.
func (e *Exchange) At(date time.Time, clock string) (time.Time, error) {
	var parsed time.Time
	var err error
	for _, layout := range []string{"15:04:05", "15:04"} {
		if parsed, err = time.Parse(layout, clock); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time of day %q: %w", clock, err)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, parsed.Hour(), parsed.Minute(), parsed.Second(), 0, e.loc), nil
}

// SessionClose returns the regular close of date in the exchange time zone.
func (e *Exchange) SessionClose(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, e.closeMin/60, e.closeMin%60, 0, 0, e.loc)
}

// SessionOpen returns the regular open of date in the exchange time zone.
func (e *Exchange) SessionOpen(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, e.openMin/60, e.openMin%60, 0, 0, e.loc)
}

// TradingDays lists the trading days in [from, to].
func (e *Exchange) TradingDays(from, to time.Time) []time.Time {
	var days []time.Time
	y, m, d := from.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ty, tm, td := to.Date()
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	for ; !day.After(end); day = day.AddDate(0, 0, 1) {
		if e.IsTradingDay(day) {
			days = append(days, day)
		}
	}
	return days
}
