package valuation_test

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adithyabsk/portfoliohut/internal/model"
)

const testOwner = "owner-1"

var ny = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

var entrySeq int

func nextID() string {
	entrySeq++
	return fmt.Sprintf("e-%04d", entrySeq)
}

// at returns a New York timestamp on the given day.
func at(day string, hour, minute int) time.Time {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, ny)
}

// trade returns an equity entry and its internal cash entry.
func trade(symbol string, when time.Time, qty int64, price string) []model.LedgerEntry {
	p := decimal.RequireFromString(price)
	eq := model.LedgerEntry{
		ID:         nextID(),
		OwnerID:    testOwner,
		Kind:       model.KindEquity,
		Symbol:     symbol,
		OccurredAt: when,
		Quantity:   qty,
		UnitPrice:  p,
	}
	cashQty := int64(-1)
	if qty < 0 {
		cashQty = 1
	}
	abs := qty
	if abs < 0 {
		abs = -abs
	}
	ic := model.LedgerEntry{
		ID:         nextID(),
		OwnerID:    testOwner,
		Kind:       model.KindInternalCash,
		Symbol:     model.CashSymbol,
		OccurredAt: when,
		Quantity:   cashQty,
		UnitPrice:  p.Mul(decimal.NewFromInt(abs)),
		PairID:     eq.ID,
	}
	return []model.LedgerEntry{eq, ic}
}

func deposit(when time.Time, amount string) model.LedgerEntry {
	return cash(when, 1, amount)
}

func withdraw(when time.Time, amount string) model.LedgerEntry {
	return cash(when, -1, amount)
}

func cash(when time.Time, sign int64, amount string) model.LedgerEntry {
	return model.LedgerEntry{
		ID:         nextID(),
		OwnerID:    testOwner,
		Kind:       model.KindExternalCash,
		Symbol:     model.CashSymbol,
		OccurredAt: when,
		Quantity:   sign,
		UnitPrice:  decimal.RequireFromString(amount),
	}
}

func ledger(parts ...any) []model.LedgerEntry {
	var out []model.LedgerEntry
	for _, p := range parts {
		switch v := p.(type) {
		case model.LedgerEntry:
			out = append(out, v)
		case []model.LedgerEntry:
			out = append(out, v...)
		}
	}
	return out
}

// closes builds bars from "YYYY-MM-DD" → close pairs.
func closes(symbol string, pairs ...any) []model.PriceBar {
	var bars []model.PriceBar
	for i := 0; i+1 < len(pairs); i += 2 {
		d, err := time.Parse("2006-01-02", pairs[i].(string))
		if err != nil {
			panic(err)
		}
		c := decimal.RequireFromString(pairs[i+1].(string))
		bars = append(bars, model.PriceBar{
			Symbol: symbol,
			Date:   d,
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
		})
	}
	return bars
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}
