package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/model"
)

// MockMarketDataProvider is an in-memory service.MarketDataProvider.
// It returns the configured bars and company info instead of calling Yahoo.
type MockMarketDataProvider struct {
	mu sync.Mutex

	// Bars holds the full history of each symbol, oldest first.
	Bars map[string][]model.PriceBar
	// Infos holds company metadata by symbol.
	Infos map[string]model.CompanyInfo
	// Err, when set, is returned from every call.
	Err error

	historyCalls map[string]int
	infoCalls    map[string]int
}

// NewMockMarketDataProvider creates an empty mock provider.
func NewMockMarketDataProvider() *MockMarketDataProvider {
	return &MockMarketDataProvider{
		Bars:         make(map[string][]model.PriceBar),
		Infos:        make(map[string]model.CompanyInfo),
		historyCalls: make(map[string]int),
		infoCalls:    make(map[string]int),
	}
}

// WithCloses adds one bar per (date, close) pair to symbol's history.
//
// Example usage:
//
//	mock := testutil.NewMockMarketDataProvider().
//	    WithCloses("AAPL", "2024-01-02", "150", "2024-01-03", "155")
func (m *MockMarketDataProvider) WithCloses(symbol string, pairs ...string) *MockMarketDataProvider {
	for i := 0; i+1 < len(pairs); i += 2 {
		m.WithBar(NewPriceBar(symbol, Date(pairs[i])).WithClose(pairs[i+1]).Bar())
	}
	return m
}

// WithBar adds a single bar.
func (m *MockMarketDataProvider) WithBar(bar model.PriceBar) *MockMarketDataProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Bars[bar.Symbol] = append(m.Bars[bar.Symbol], bar)
	return m
}

// WithInfo adds company metadata.
func (m *MockMarketDataProvider) WithInfo(info model.CompanyInfo) *MockMarketDataProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Infos[info.Symbol] = info
	return m
}

// WithError makes every call fail with err.
func (m *MockMarketDataProvider) WithError(err error) *MockMarketDataProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
	return m
}

// FetchHistory returns the bars of symbol dated on or after start.
func (m *MockMarketDataProvider) FetchHistory(_ context.Context, symbol string, start time.Time) ([]model.PriceBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.historyCalls[symbol]++
	if m.Err != nil {
		return nil, m.Err
	}
	from := model.DateOf(start)
	out := []model.PriceBar{}
	for _, b := range m.Bars[symbol] {
		if !b.Date.Before(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

// FetchCompanyInfo returns the configured metadata or apperrors.ErrCompanyInfoNotFound.
func (m *MockMarketDataProvider) FetchCompanyInfo(_ context.Context, symbol string) (model.CompanyInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.infoCalls[symbol]++
	if m.Err != nil {
		return model.CompanyInfo{}, m.Err
	}
	info, ok := m.Infos[symbol]
	if !ok {
		return model.CompanyInfo{}, apperrors.ErrCompanyInfoNotFound
	}
	return info, nil
}

// HistoryCalls reports how many times FetchHistory was called for symbol.
func (m *MockMarketDataProvider) HistoryCalls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.historyCalls[symbol]
}

// InfoCalls reports how many times FetchCompanyInfo was called for symbol.
func (m *MockMarketDataProvider) InfoCalls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.infoCalls[symbol]
}
