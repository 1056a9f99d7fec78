package valuation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/model"
)

const (
	// denominatorEpsilon treats a baseline this close to zero as zero.
	denominatorEpsilon = 1e-9
	// zeroReturnEpsilon treats a daily return this close to zero as no movement.
	zeroReturnEpsilon = 1e-12
)

// ErrMissingPrices is returned by ComputeReturns when a traded symbol has no
// price bars at all. It wraps apperrors.ErrMarketDataUnavailable.
var ErrMissingPrices = fmt.Errorf("%w: no prices for traded symbol", apperrors.ErrMarketDataUnavailable)

// ComputeReturns builds the daily time-weighted return series of one owner.
//
// The series runs over every calendar day from the owner's first entry to
// asOf. Per day t:
//
//	value_t = Σ close_t(s) × shares_t(s) + tradingCash_t + externalCash_t
//	r_t     = (value_t − (value_{t−1} + flow_t)) / (value_{t−1} + flow_t)
//
// where close prices and share counts are forward-filled across days without
// a bar or a trade, tradingCash is the running sum of INTERNAL_CASH entries,
// externalCash the running sum of EXTERNAL_CASH entries and flow_t the
// external cash moved on day t alone. Same-day trades in a symbol are summed
// into one delta before the share series is built.
//
// The day of the first trade has no baseline that holds stock and is
// dropped, as are days with a zero baseline, an undefined value or an
// infinite result, and everything before the first non-zero return. An owner
// without equity entries gets an empty series. asOf is read in its own
// location, so pass it in the exchange time zone.
func ComputeReturns(entries []model.LedgerEntry, bars map[string][]model.PriceBar, asOf time.Time) ([]model.ReturnPoint, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	symbols := tradedSymbols(entries)
	if len(symbols) == 0 {
		return nil, nil
	}
	for _, s := range symbols {
		if len(bars[s]) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingPrices, s)
		}
	}

	start := entries[0].Date()
	end := model.DateOf(asOf)
	for _, e := range entries {
		d := e.Date()
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}
	cal := newDayIndex(start, end)
	n := cal.len()

	shareDeltas := make(map[string][]int64, len(symbols))
	for _, s := range symbols {
		shareDeltas[s] = make([]int64, n)
	}
	tradingCash := make([]float64, n)
	externalFlow := make([]float64, n)

	firstTrade := n
	for _, e := range entries {
		i := cal.index(e.Date())
		switch e.Kind {
		case model.KindEquity:
			shareDeltas[e.Symbol][i] += e.Quantity
			firstTrade = min(firstTrade, i)
		case model.KindInternalCash:
			tradingCash[i] += e.Notional().InexactFloat64()
		case model.KindExternalCash:
			externalFlow[i] += e.Notional().InexactFloat64()
		}
	}

	closes := make(map[string][]float64, len(symbols))
	for _, s := range symbols {
		closes[s] = forwardFilledCloses(bars[s], cal)
	}

	values := make([]float64, n)
	shares := make(map[string]int64, len(symbols))
	var tradingCashCum, externalCashCum float64
	for t := 0; t < n; t++ {
		tradingCashCum += tradingCash[t]
		externalCashCum += externalFlow[t]
		value := tradingCashCum + externalCashCum
		for _, s := range symbols {
			shares[s] += shareDeltas[s][t]
			if shares[s] == 0 {
				continue
			}
			value += closes[s][t] * float64(shares[s])
		}
		values[t] = value
	}

	points := make([]model.ReturnPoint, 0, n)
	for t := firstTrade + 1; t < n; t++ {
		baseline := values[t-1] + externalFlow[t]
		if math.IsNaN(values[t]) || math.IsNaN(baseline) || math.Abs(baseline) < denominatorEpsilon {
			continue
		}
		r := (values[t] - baseline) / baseline
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		if len(points) == 0 && math.Abs(r) < zeroReturnEpsilon {
			continue
		}
		points = append(points, model.ReturnPoint{Date: cal.day(t), ReturnPct: r})
	}

	return points, nil
}

// Cumulative compounds a daily series into its running cumulative return,
// computed as exp(Σ ln|1 + r|) − 1 to avoid the precision loss of repeated
// multiplication over long histories.
func Cumulative(points []model.ReturnPoint) []model.CumulativePoint {
	out := make([]model.CumulativePoint, len(points))
	var logSum float64
	for i, p := range points {
		logSum += math.Log(math.Abs(1 + p.ReturnPct))
		out[i] = model.CumulativePoint{
			Date:          p.Date,
			DailyReturn:   p.ReturnPct,
			CumulativePct: math.Expm1(logSum),
		}
	}
	return out
}

// CumulativeNaive is Π(1 + r) − 1 by direct multiplication.
func CumulativeNaive(points []model.ReturnPoint) float64 {
	product := 1.0
	for _, p := range points {
		product *= 1 + p.ReturnPct
	}
	return product - 1
}

// MostRecent returns the last cumulative return of the series. ok is false
// when the series is empty: there is no return yet, which is not the same as
// a zero return.
func MostRecent(points []model.ReturnPoint) (value float64, date time.Time, ok bool) {
	if len(points) == 0 {
		return 0, time.Time{}, false
	}
	curve := Cumulative(points)
	last := curve[len(curve)-1]
	return last.CumulativePct, last.Date, true
}

// DailyReturnsFromCloses turns a close series into simple day-over-day
// returns, used for benchmark comparison.
func DailyReturnsFromCloses(bars []model.PriceBar) []model.ReturnPoint {
	sorted := sortedBars(bars)
	points := make([]model.ReturnPoint, 0, len(sorted))
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1].Close.InexactFloat64()
		if prev == 0 {
			continue
		}
		r := sorted[i].Close.InexactFloat64()/prev - 1
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		points = append(points, model.ReturnPoint{Date: sorted[i].Date, ReturnPct: r})
	}
	return points
}

// tradedSymbols lists the distinct equity symbols, sorted.
func tradedSymbols(entries []model.LedgerEntry) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, e := range entries {
		if e.Kind == model.KindEquity && !seen[e.Symbol] {
			seen[e.Symbol] = true
			symbols = append(symbols, e.Symbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}

// forwardFilledCloses lays a symbol's closes onto the calendar. Days before
// the first known close are NaN; the last close before the calendar start
// seeds the first day.
func forwardFilledCloses(bars []model.PriceBar, cal dayIndex) []float64 {
	out := make([]float64, cal.len())
	for i := range out {
		out[i] = math.NaN()
	}

	seed := math.NaN()
	for _, b := range sortedBars(bars) {
		d := model.DateOf(b.Date)
		switch {
		case d.Before(cal.start):
			seed = b.Close.InexactFloat64()
		case d.After(cal.end):
		default:
			out[cal.index(d)] = b.Close.InexactFloat64()
		}
	}

	last := seed
	for i := range out {
		if math.IsNaN(out[i]) {
			out[i] = last
		} else {
			last = out[i]
		}
	}
	return out
}

func sortedBars(bars []model.PriceBar) []model.PriceBar {
	sorted := make([]model.PriceBar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return sorted
}
