package model

import "github.com/shopspring/decimal"

// Holding is one row of a portfolio snapshot. The cash row has Symbol
// CashSymbol, Quantity +1 or -1 (sign of the net cash) and AverageCost equal
// to the absolute net cash.
type Holding struct {
	Symbol      string          `json:"symbol"`
	Quantity    int64           `json:"quantity"`
	AverageCost decimal.Decimal `json:"averageCost"`
}

// IsCash reports whether h is the synthetic cash row.
func (h Holding) IsCash() bool {
	return h.Symbol == CashSymbol
}

// Snapshot is the derived current state of an owner's ledger.
type Snapshot struct {
	OwnerID  string    `json:"ownerId"`
	Holdings []Holding `json:"holdings"`
}

// Cash returns the signed net cash of the snapshot.
func (s Snapshot) Cash() decimal.Decimal {
	for _, h := range s.Holdings {
		if h.IsCash() {
			return h.AverageCost.Mul(decimal.NewFromInt(h.Quantity))
		}
	}
	return decimal.Zero
}

// Equities returns the non-cash rows.
func (s Snapshot) Equities() []Holding {
	out := make([]Holding, 0, len(s.Holdings))
	for _, h := range s.Holdings {
		if !h.IsCash() {
			out = append(out, h)
		}
	}
	return out
}

// Position returns the holding for symbol, if any.
func (s Snapshot) Position(symbol string) (Holding, bool) {
	for _, h := range s.Holdings {
		if h.Symbol == symbol {
			return h, true
		}
	}
	return Holding{}, false
}

// ValuedHolding is a holding marked to its latest close.
type ValuedHolding struct {
	Symbol        string          `json:"symbol"`
	Quantity      int64           `json:"quantity"`
	AverageCost   decimal.Decimal `json:"averageCost"`
	LastClose     decimal.Decimal `json:"lastClose"`
	LastCloseDate string          `json:"lastCloseDate"`
	MarketValue   decimal.Decimal `json:"marketValue"`
	UnrealizedGL  decimal.Decimal `json:"unrealizedGainLoss"`
	Weight        float64         `json:"weight"`
	LogoURL       string          `json:"logoUrl,omitempty"`
}

// PortfolioDetails is the valued view of a snapshot.
type PortfolioDetails struct {
	OwnerID     string          `json:"ownerId"`
	Cash        decimal.Decimal `json:"cash"`
	EquityValue decimal.Decimal `json:"equityValue"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	Holdings    []ValuedHolding `json:"holdings"`
}
