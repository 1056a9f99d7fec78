package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CashSymbol is the symbol recorded on cash entries and on the snapshot's cash row.
const CashSymbol = "-"

// EntryKind is the closed set of ledger entry kinds.
type EntryKind string

const (
	// KindEquity is a stock trade.
	KindEquity EntryKind = "EQ"
	// KindExternalCash is a deposit or withdrawal of outside money.
	KindExternalCash EntryKind = "EC"
	// KindInternalCash is the cash side of an equity trade.
	KindInternalCash EntryKind = "IC"
)

// ParseEntryKind accepts the stored codes and the long names.
func ParseEntryKind(s string) (EntryKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EQ", "EQUITY":
		return KindEquity, nil
	case "EC", "EXTERNAL_CASH":
		return KindExternalCash, nil
	case "IC", "INTERNAL_CASH":
		return KindInternalCash, nil
	}
	return "", fmt.Errorf("unknown entry kind %q", s)
}

// IsCash reports whether entries of this kind move cash.
func (k EntryKind) IsCash() bool {
	return k == KindExternalCash || k == KindInternalCash
}

func (k EntryKind) String() string {
	switch k {
	case KindEquity:
		return "EQUITY"
	case KindExternalCash:
		return "EXTERNAL_CASH"
	case KindInternalCash:
		return "INTERNAL_CASH"
	}
	return string(k)
}

// TradeSide is the direction of an equity trade.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// ParseTradeSide parses "buy" or "sell", case-insensitively.
func ParseTradeSide(s string) (TradeSide, error) {
	switch TradeSide(strings.ToLower(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("unknown trade side %q", s)
}

// Sign is +1 for a buy and -1 for a sell.
func (s TradeSide) Sign() int64 {
	if s == SideSell {
		return -1
	}
	return 1
}

// CashSide is the direction of an external cash movement.
type CashSide string

const (
	SideDeposit  CashSide = "deposit"
	SideWithdraw CashSide = "withdraw"
)

// ParseCashSide parses "deposit" or "withdraw" ("withdrawal" is accepted too).
func ParseCashSide(s string) (CashSide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deposit":
		return SideDeposit, nil
	case "withdraw", "withdrawal":
		return SideWithdraw, nil
	}
	return "", fmt.Errorf("unknown cash side %q", s)
}

// Sign is +1 for a deposit and -1 for a withdrawal.
func (s CashSide) Sign() int64 {
	if s == SideWithdraw {
		return -1
	}
	return 1
}

// LedgerEntry is one immutable financial event of an owner.
//
// Quantity carries the direction; UnitPrice is always positive. For cash
// entries UnitPrice is the amount and Quantity is +1 or -1. An INTERNAL_CASH
// entry references its EQUITY entry through PairID.
type LedgerEntry struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"ownerId"`
	Kind       EntryKind       `json:"kind"`
	Symbol     string          `json:"symbol"`
	OccurredAt time.Time       `json:"occurredAt"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	PairID     string          `json:"pairId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Notional returns Quantity × UnitPrice.
func (e LedgerEntry) Notional() decimal.Decimal {
	return e.UnitPrice.Mul(decimal.NewFromInt(e.Quantity))
}

// Date returns the calendar date of OccurredAt in its own location, as
// midnight UTC.
func (e LedgerEntry) Date() time.Time {
	return DateOf(e.OccurredAt)
}

// DateOf truncates t to its calendar date, keeping the date t has in its own
// location, and returns it as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// kindOrder puts external cash before trades sharing a timestamp, and a trade
// before its cash side.
func kindOrder(k EntryKind) int {
	switch k {
	case KindExternalCash:
		return 0
	case KindEquity:
		return 1
	default:
		return 2
	}
}

// EntryLess orders entries chronologically with a stable tie-break on kind and symbol.
func EntryLess(a, b LedgerEntry) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.Before(b.OccurredAt)
	}
	if ka, kb := kindOrder(a.Kind), kindOrder(b.Kind); ka != kb {
		return ka < kb
	}
	return a.Symbol < b.Symbol
}

// LedgerFilters narrows a ledger listing. Zero values match everything.
type LedgerFilters struct {
	Kinds     []EntryKind
	Symbol    string
	StartDate *time.Time
	EndDate   *time.Time
	SortDir   string
	Limit     int
}

// Match reports whether e passes the kind, symbol and date filters.
// EndDate is inclusive of the whole day.
func (f LedgerFilters) Match(e LedgerEntry) bool {
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if e.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Symbol != "" && e.Symbol != f.Symbol {
		return false
	}
	if f.StartDate != nil && e.Date().Before(DateOf(*f.StartDate)) {
		return false
	}
	if f.EndDate != nil && e.Date().After(DateOf(*f.EndDate)) {
		return false
	}
	return true
}
