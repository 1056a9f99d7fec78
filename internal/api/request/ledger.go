package request

// TradeRequest is the body of POST /api/profile/{uuid}/trade.
// OccurredAt is RFC3339 or "2006-01-02 15:04" in the exchange time zone.
type TradeRequest struct {
	Symbol     string `json:"symbol"`
	Side       string `json:"side"`
	Quantity   int64  `json:"quantity"`
	Price      string `json:"price"`
	OccurredAt string `json:"occurredAt"`
}

// CashRequest is the body of POST /api/profile/{uuid}/cash.
type CashRequest struct {
	Side       string `json:"side"`
	Amount     string `json:"amount"`
	OccurredAt string `json:"occurredAt"`
}

// BulkRowRequest is one row of a bulk upload. Action is buy, sell, deposit or
// withdraw; Symbol and Quantity are ignored for cash actions and Price holds
// the amount.
type BulkRowRequest struct {
	Action     string `json:"action"`
	Symbol     string `json:"symbol,omitempty"`
	Quantity   int64  `json:"quantity,omitempty"`
	Price      string `json:"price"`
	OccurredAt string `json:"occurredAt"`
}

// BulkRequest is the body of POST /api/profile/{uuid}/bulk.
type BulkRequest struct {
	Rows []BulkRowRequest `json:"rows"`
}
