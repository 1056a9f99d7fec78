// Package yahoo is a Yahoo Finance client for daily price history and company
// metadata.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/config"
	"github.com/adithyabsk/portfoliohut/internal/logger"
	"github.com/adithyabsk/portfoliohut/internal/model"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	logoBaseURL    = "https://logo.clearbit.com/"
	pricePlaces    = 4
)

// FinanceClient fetches data from the Yahoo Finance API.
// Requests are throttled by a shared rate limiter and retried with
// exponential backoff on transport errors, 429 and 5xx responses.
type FinanceClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
	backoff    time.Duration
}

// NewFinanceClient creates a new Yahoo Finance client from cfg. Zero values
// fall back to the public endpoint, two requests per second and three retries.
func NewFinanceClient(cfg config.YahooConfig) *FinanceClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &FinanceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		maxRetries: uint64(retries),
		backoff:    500 * time.Millisecond,
	}
}

// FetchHistory returns the daily bars of symbol from start (inclusive) until
// now, oldest first. A zero start requests the full history.
//
// A symbol Yahoo does not know yields an empty slice and no error.
func (c *FinanceClient) FetchHistory(ctx context.Context, symbol string, start time.Time) ([]model.PriceBar, error) {
	period1 := int64(0)
	if !start.IsZero() && start.Unix() > 0 {
		period1 = start.Unix()
	}
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", fmt.Sprint(period1))
	q.Set("period2", fmt.Sprint(time.Now().Unix()))
	q.Set("events", "div|split")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), q.Encode())

	var resp chartResponse
	found, err := c.getJSON(ctx, endpoint, &resp)
	if err != nil {
		return nil, err
	}
	if !found || resp.Chart.Error.notFound() || len(resp.Chart.Result) == 0 {
		logger.FromContext(ctx).Debug("no chart data", "symbol", symbol)
		return []model.PriceBar{}, nil
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}

	bars, err := parseChart(symbol, resp.Chart.Result[0])
	if err != nil {
		return nil, err
	}

	// period1 is a timestamp, so a start date west of UTC can pull in the day before.
	if !start.IsZero() {
		from := model.DateOf(start)
		kept := bars[:0]
		for _, b := range bars {
			if !b.Date.Before(from) {
				kept = append(kept, b)
			}
		}
		bars = kept
	}
	return bars, nil
}

// FetchCompanyInfo returns name, sector, website, summary and a logo URL.
// Returns apperrors.ErrCompanyInfoNotFound for an unknown symbol.
func (c *FinanceClient) FetchCompanyInfo(ctx context.Context, symbol string) (model.CompanyInfo, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile,price",
		c.baseURL, url.PathEscape(symbol))

	var resp quoteSummaryResponse
	found, err := c.getJSON(ctx, endpoint, &resp)
	if err != nil {
		return model.CompanyInfo{}, err
	}
	if !found || resp.QuoteSummary.Error.notFound() || len(resp.QuoteSummary.Result) == 0 {
		return model.CompanyInfo{}, fmt.Errorf("%w: %s", apperrors.ErrCompanyInfoNotFound, symbol)
	}
	if resp.QuoteSummary.Error != nil {
		return model.CompanyInfo{}, fmt.Errorf("yahoo error: %s: %s",
			resp.QuoteSummary.Error.Code, resp.QuoteSummary.Error.Description)
	}

	r := resp.QuoteSummary.Result[0]
	name := r.Price.LongName
	if name == "" {
		name = r.Price.ShortName
	}
	return model.CompanyInfo{
		Symbol:    symbol,
		Name:      name,
		Sector:    r.AssetProfile.Sector,
		Website:   r.AssetProfile.Website,
		LogoURL:   logoURL(r.AssetProfile.Website),
		Summary:   r.AssetProfile.LongBusinessSummary,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// getJSON performs a throttled, retried GET and decodes the body into out.
// found is false when Yahoo answered 404.
func (c *FinanceClient) getJSON(ctx context.Context, endpoint string, out any) (found bool, err error) {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("yahoo returned status %d", resp.StatusCode))
		case resp.StatusCode == http.StatusNotFound:
			found = false
			return nil
		case resp.StatusCode >= 400:
			return fmt.Errorf("yahoo returned status %d", resp.StatusCode)
		}

		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode yahoo response: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("yahoo request failed: %w", err)
	}
	return found, nil
}

// parseChart converts one chart result into bars keyed by the exchange
// trading date. Days without a close are skipped. When the same date shows up
// twice the later row wins.
func parseChart(symbol string, result chartResult) ([]model.PriceBar, error) {
	if len(result.Timestamp) == 0 {
		return []model.PriceBar{}, nil
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data returned for %s", symbol)
	}
	quote := result.Indicators.Quote[0]
	if len(quote.Close) != len(result.Timestamp) {
		return nil, fmt.Errorf("mismatched data lengths for %s", symbol)
	}

	offset := result.Meta.GMTOffset
	tradingDate := func(ts int64) time.Time {
		return model.DateOf(time.Unix(ts+offset, 0).UTC())
	}

	dividends := make(map[time.Time]decimal.Decimal)
	for _, d := range result.Events.Dividends {
		day := tradingDate(d.Date)
		dividends[day] = dividends[day].Add(decimal.NewFromFloat(d.Amount))
	}
	splits := make(map[time.Time]float64)
	for _, s := range result.Events.Splits {
		if s.Denominator != 0 {
			splits[tradingDate(s.Date)] = s.Numerator / s.Denominator
		}
	}

	byDate := make(map[time.Time]model.PriceBar, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closePrice := at(quote.Close, i)
		if closePrice == nil {
			continue
		}
		day := tradingDate(ts)
		bar := model.PriceBar{
			Symbol:    symbol,
			Date:      day,
			Close:     price(closePrice),
			Open:      price(orElse(at(quote.Open, i), closePrice)),
			High:      price(orElse(at(quote.High, i), closePrice)),
			Low:       price(orElse(at(quote.Low, i), closePrice)),
			Dividends: dividends[day],
			Splits:    splits[day],
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		byDate[day] = bar
	}

	bars := make([]model.PriceBar, 0, len(byDate))
	for _, b := range byDate {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func orElse(v, fallback *float64) *float64 {
	if v == nil {
		return fallback
	}
	return v
}

func price(v *float64) decimal.Decimal {
	return decimal.NewFromFloat(*v).Round(pricePlaces)
}

// logoURL derives a logo from the company's website domain.
func logoURL(website string) string {
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	u, err := url.Parse(website)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return logoBaseURL + strings.TrimPrefix(u.Hostname(), "www.")
}
