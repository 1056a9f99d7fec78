package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/calendar"
	"github.com/adithyabsk/portfoliohut/internal/logger"
	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/repository"
)

// MarketDataProvider is the external source of daily bars and company metadata.
type MarketDataProvider interface {
	// FetchHistory returns daily bars from start (inclusive) until now. A zero
	// start asks for the full history. An unknown symbol yields no bars and no error.
	FetchHistory(ctx context.Context, symbol string, start time.Time) ([]model.PriceBar, error)
	FetchCompanyInfo(ctx context.Context, symbol string) (model.CompanyInfo, error)
}

// MarketDataOptions tunes the market data cache.
type MarketDataOptions struct {
	CacheTTL           time.Duration
	RefreshConcurrency int
	BenchmarkSymbol    string
	Now                func() time.Time
}

// MarketDataService is a read-through cache of daily price bars in front of a
// MarketDataProvider.
//
// The first request for a symbol fetches its full history. Later requests
// fetch only the days after the newest stored bar, and only once a session
// has opened since then.
type MarketDataService struct {
	priceRepo   *repository.PriceRepository
	companyRepo *repository.CompanyRepository
	ledgerRepo  *repository.LedgerRepository
	provider    MarketDataProvider
	calendar    calendar.Calendar

	infoCache   *cache.Cache
	policy      *bluemonday.Policy
	group       singleflight.Group
	concurrency int
	benchmark   string
	now         func() time.Time
}

// NewMarketDataService creates a new MarketDataService with the provided dependencies.
func NewMarketDataService(
	priceRepo *repository.PriceRepository,
	companyRepo *repository.CompanyRepository,
	ledgerRepo *repository.LedgerRepository,
	provider MarketDataProvider,
	cal calendar.Calendar,
	opts MarketDataOptions,
) *MarketDataService {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	concurrency := opts.RefreshConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &MarketDataService{
		priceRepo:   priceRepo,
		companyRepo: companyRepo,
		ledgerRepo:  ledgerRepo,
		provider:    provider,
		calendar:    cal,
		infoCache:   cache.New(ttl, 2*ttl),
		policy:      bluemonday.StrictPolicy(),
		concurrency: concurrency,
		benchmark:   opts.BenchmarkSymbol,
		now:         now,
	}
}

// GetTickerBars returns every known daily bar of symbol, oldest first,
// refreshing the local cache from the provider when it is missing or stale.
//
// A symbol the provider knows nothing about yields an empty slice and no
// error. A provider failure with nothing cached is returned wrapped in
// apperrors.ErrMarketDataUnavailable; with a cache it is logged and the
// stale bars are returned.
//
// Concurrent calls for the same symbol share one fetch.
func (s *MarketDataService) GetTickerBars(ctx context.Context, symbol string) ([]model.PriceBar, error) {
	symbol = normalizeSymbol(symbol)
	v, err, _ := s.group.Do(symbol, func() (any, error) {
		return s.loadBars(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.PriceBar), nil
}

func (s *MarketDataService) loadBars(ctx context.Context, symbol string) ([]model.PriceBar, error) {
	log := logger.FromContext(ctx).With("symbol", symbol)

	latest, ok, err := s.priceRepo.GetLatestBarDate(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveMarketData, err)
	}

	if !ok {
		bars, err := s.provider.FetchHistory(ctx, symbol, time.Time{})
		if err != nil {
			log.Warn("full history fetch failed", "error", err)
			return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrMarketDataUnavailable, symbol, err)
		}
		bars = s.settled(bars)
		if len(bars) == 0 {
			return []model.PriceBar{}, nil
		}
		n, err := s.priceRepo.InsertPriceBars(ctx, withSymbol(symbol, bars))
		if err != nil {
			return nil, fmt.Errorf("failed to store price bars: %w", err)
		}
		log.Info("fetched full price history", "bars", n)
		return s.priceRepo.GetPriceBars(ctx, symbol)
	}

	if s.calendar.HasSessionBetween(latest, s.now()) {
		bars, err := s.provider.FetchHistory(ctx, symbol, latest.AddDate(0, 0, 1))
		bars = s.settled(bars)
		if err != nil {
			log.Warn("incremental price fetch failed, serving cached bars", "error", err, "latest", latest.Format("2006-01-02"))
		} else if len(bars) > 0 {
			n, err := s.priceRepo.InsertPriceBars(ctx, withSymbol(symbol, bars))
			if err != nil {
				return nil, fmt.Errorf("failed to store price bars: %w", err)
			}
			log.Debug("appended price bars", "bars", n)
		}
	}

	return s.priceRepo.GetPriceBars(ctx, symbol)
}

// settled drops today's bar while the session is still running. Bars are
// stored once and never rewritten, so an intraday close must not be kept.
func (s *MarketDataService) settled(bars []model.PriceBar) []model.PriceBar {
	now := s.now().In(s.calendar.Location())
	today := model.DateOf(now)
	if !now.Before(s.calendar.SessionClose(now)) {
		return bars
	}
	kept := bars[:0]
	for _, b := range bars {
		if model.DateOf(b.Date).Before(today) {
			kept = append(kept, b)
		}
	}
	return kept
}

// GetBarForDate returns the bar of symbol on the given trading date.
//
// Returns apperrors.ErrMarketDataUnavailable when no bars exist for the symbol
// at all and apperrors.ErrPriceBarNotFound when bars exist but none on date.
func (s *MarketDataService) GetBarForDate(ctx context.Context, symbol string, date time.Time) (model.PriceBar, error) {
	bars, err := s.GetTickerBars(ctx, symbol)
	if err != nil {
		return model.PriceBar{}, err
	}
	if len(bars) == 0 {
		return model.PriceBar{}, fmt.Errorf("%w: no bars for %s", apperrors.ErrMarketDataUnavailable, symbol)
	}
	day := model.DateOf(date)
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].Date.Equal(day) {
			return bars[i], nil
		}
		if bars[i].Date.Before(day) {
			break
		}
	}

	// Today's bar is only stored after the close; use the live one meanwhile.
	if day.Equal(model.DateOf(s.now().In(s.calendar.Location()))) {
		live, err := s.provider.FetchHistory(ctx, normalizeSymbol(symbol), day)
		if err != nil {
			return model.PriceBar{}, fmt.Errorf("%w: %s: %w", apperrors.ErrMarketDataUnavailable, symbol, err)
		}
		for _, b := range live {
			if model.DateOf(b.Date).Equal(day) {
				return b, nil
			}
		}
	}
	return model.PriceBar{}, fmt.Errorf("%w: %s on %s", apperrors.ErrPriceBarNotFound, symbol, day.Format("2006-01-02"))
}

// GetCompanyInfo returns descriptive metadata for symbol from memory, the
// database or the provider, in that order. Provider text is stripped of markup.
func (s *MarketDataService) GetCompanyInfo(ctx context.Context, symbol string) (model.CompanyInfo, error) {
	symbol = normalizeSymbol(symbol)
	if v, ok := s.infoCache.Get(symbol); ok {
		return v.(model.CompanyInfo), nil
	}

	info, err := s.companyRepo.GetCompanyInfo(ctx, symbol)
	if err == nil {
		s.infoCache.SetDefault(symbol, info)
		return info, nil
	}
	if !errors.Is(err, apperrors.ErrCompanyInfoNotFound) {
		return model.CompanyInfo{}, err
	}

	info, err = s.provider.FetchCompanyInfo(ctx, symbol)
	if err != nil {
		if errors.Is(err, apperrors.ErrCompanyInfoNotFound) {
			return model.CompanyInfo{}, err
		}
		return model.CompanyInfo{}, fmt.Errorf("%w: %w", apperrors.ErrMarketDataUnavailable, err)
	}

	info = s.sanitize(info)
	info.Symbol = symbol
	if info.FetchedAt.IsZero() {
		info.FetchedAt = s.now().UTC()
	}
	if err := s.companyRepo.UpsertCompanyInfo(ctx, info); err != nil {
		return model.CompanyInfo{}, err
	}
	s.infoCache.SetDefault(symbol, info)
	return info, nil
}

func (s *MarketDataService) sanitize(info model.CompanyInfo) model.CompanyInfo {
	clean := func(v string) string {
		return strings.TrimSpace(s.policy.Sanitize(v))
	}
	info.Name = clean(info.Name)
	info.Sector = clean(info.Sector)
	info.Summary = clean(info.Summary)
	info.Website = clean(info.Website)
	info.LogoURL = clean(info.LogoURL)
	return info
}

// RefreshAll brings the bars of every traded symbol, plus the benchmark, up
// to date. Symbols are refreshed concurrently; failures are collected and do
// not stop the others.
func (s *MarketDataService) RefreshAll(ctx context.Context) (int, error) {
	symbols, err := s.ledgerRepo.GetTradedSymbols(ctx)
	if err != nil {
		return 0, err
	}
	if s.benchmark != "" {
		symbols = append(symbols, s.benchmark)
	}

	var (
		mu        sync.Mutex
		errs      []error
		refreshed int
	)
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, symbol := range symbols {
		g.Go(func() error {
			_, err := s.GetTickerBars(ctx, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
				return nil
			}
			refreshed++
			return nil
		})
	}
	_ = g.Wait()

	logger.FromContext(ctx).Info("price refresh finished", "symbols", len(symbols), "refreshed", refreshed, "failed", len(errs))
	return refreshed, errors.Join(errs...)
}

func withSymbol(symbol string, bars []model.PriceBar) []model.PriceBar {
	for i := range bars {
		bars[i].Symbol = symbol
		bars[i].Date = model.DateOf(bars[i].Date)
	}
	return bars
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
