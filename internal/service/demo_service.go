package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adithyabsk/portfoliohut/internal/api/request"
	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/logger"
	"github.com/adithyabsk/portfoliohut/internal/model"
)

var demoTickers = []string{
	"AAPL", "ADI", "ADP", "ADSK", "BR", "CRM", "IBM", "MA",
	"META", "MSFT", "MSI", "NVDA", "PYPL", "TTWO", "V", "VRSN",
}

const (
	demoUniqueTickers = 6
	demoRoundTrips    = 2
)

var (
	demoInitialDeposit = decimal.NewFromInt(500_000)
	demoYearStart      = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	demoYearEnd        = time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)
)

// SessionCalendar lists trading days and their session times.
type SessionCalendar interface {
	TradingDays(from, to time.Time) []time.Time
	SessionOpen(date time.Time) time.Time
	SessionClose(date time.Time) time.Time
}

// DemoService seeds demo profiles with a deterministic trading history.
//
// Each demo owner deposits 500,000 on the first session of 2020, buys six
// tech stocks at the close of random sessions that year, then sells half of
// the first position and buys half again of the second, twice over.
type DemoService struct {
	profiles *ProfileService
	ledger   *LedgerService
	bars     BarSource
	calendar SessionCalendar
}

// NewDemoService creates a new DemoService.
func NewDemoService(profiles *ProfileService, ledger *LedgerService, bars BarSource, cal SessionCalendar) *DemoService {
	return &DemoService{profiles: profiles, ledger: ledger, bars: bars, calendar: cal}
}

// Seed creates count demo profiles named demo1..demoN. Existing demo
// usernames are skipped. The returned slice holds the profiles created.
func (s *DemoService) Seed(ctx context.Context, count int) ([]model.Profile, error) {
	log := logger.FromContext(ctx)

	var created []model.Profile
	for i := 1; i <= count; i++ {
		profile, err := s.profiles.CreateProfile(ctx, request.CreateProfileRequest{
			Username:    fmt.Sprintf("demo%d", i),
			DisplayName: fmt.Sprintf("Jane Doe %d", i),
			Visibility:  string(model.VisibilityPublic),
		})
		if errors.Is(err, apperrors.ErrUsernameTaken) {
			log.Info("demo profile exists, skipping", "username", fmt.Sprintf("demo%d", i))
			continue
		}
		if err != nil {
			return created, err
		}

		rows, err := s.demoRows(ctx, uint64(i))
		if err != nil {
			return created, fmt.Errorf("demo%d: %w", i, err)
		}
		if _, err := s.ledger.BulkRecord(ctx, profile.ID, rows); err != nil {
			return created, fmt.Errorf("demo%d: %w", i, err)
		}
		created = append(created, *profile)
	}
	return created, nil
}

func (s *DemoService) demoRows(ctx context.Context, seed uint64) ([]BulkRow, error) {
	rng := rand.New(rand.NewPCG(seed, seed*100))

	days := s.calendar.TradingDays(demoYearStart, demoYearEnd)
	total := demoUniqueTickers + 2*demoRoundTrips
	if len(days) < total+1 {
		return nil, fmt.Errorf("not enough sessions in %d", demoYearStart.Year())
	}

	tickers := make([]string, len(demoTickers))
	copy(tickers, demoTickers)
	rng.Shuffle(len(tickers), func(i, j int) { tickers[i], tickers[j] = tickers[j], tickers[i] })
	tickers = tickers[:demoUniqueTickers]
	tickers = append(tickers, tickers[:2*demoRoundTrips]...)

	// The first session is kept for the deposit.
	picked := rng.Perm(len(days) - 1)[:total]
	sort.Ints(picked)

	rows := []BulkRow{{Cash: &CashTransaction{
		OccurredAt: s.calendar.SessionOpen(days[0]),
		Side:       model.SideDeposit,
		Amount:     demoInitialDeposit,
	}}}

	budget := demoInitialDeposit.Div(decimal.NewFromInt(int64(total)))
	quantities := make([]int64, 0, total)
	for i, symbol := range tickers {
		day := days[picked[i]+1]
		bar, err := s.bars.GetBarForDate(ctx, symbol, day)
		if err != nil {
			return nil, fmt.Errorf("%s on %s: %w", symbol, day.Format("2006-01-02"), err)
		}

		side := model.SideBuy
		var qty int64
		if i < demoUniqueTickers {
			qty = budget.Div(bar.Close).Round(0).IntPart()
			if qty < 1 {
				qty = 1
			}
		} else {
			if (i-demoUniqueTickers)%2 == 0 {
				side = model.SideSell
			}
			qty = quantities[i-demoUniqueTickers] / 2
			if qty < 1 {
				continue
			}
		}
		quantities = append(quantities, qty)

		rows = append(rows, BulkRow{Trade: &EquityTrade{
			Symbol:     symbol,
			OccurredAt: s.calendar.SessionClose(day),
			Side:       side,
			Quantity:   qty,
			Price:      bar.Close,
		}})
	}
	return rows, nil
}
