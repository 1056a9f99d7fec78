package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/logger"
	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/repository"
)

// CompanyInfoSource looks up descriptive metadata of a symbol.
type CompanyInfoSource interface {
	GetCompanyInfo(ctx context.Context, symbol string) (model.CompanyInfo, error)
}

// PortfolioService serves the derived snapshot of an owner and values it at
// the latest available closes.
type PortfolioService struct {
	snapshotRepo *repository.SnapshotRepository
	profileRepo  *repository.ProfileRepository
	bars         BarLoader
	companies    CompanyInfoSource
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(
	snapshotRepo *repository.SnapshotRepository,
	profileRepo *repository.ProfileRepository,
	bars BarLoader,
	companies CompanyInfoSource,
) *PortfolioService {
	return &PortfolioService{
		snapshotRepo: snapshotRepo,
		profileRepo:  profileRepo,
		bars:         bars,
		companies:    companies,
	}
}

// GetSnapshot returns the owner's stored snapshot. An owner without entries
// has an empty snapshot.
func (s *PortfolioService) GetSnapshot(ctx context.Context, ownerID string) (model.Snapshot, error) {
	if _, err := s.profileRepo.GetProfile(ctx, ownerID); err != nil {
		return model.Snapshot{}, err
	}
	snap, err := s.snapshotRepo.GetSnapshot(ctx, ownerID)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveSnapshot, err)
	}
	if snap.Holdings == nil {
		snap.Holdings = []model.Holding{}
	}
	return snap, nil
}

// GetPortfolioDetails values every open position at its latest close.
// Holdings are ordered by market value, largest first. Weight is the share
// of total value (cash included) held in the position.
func (s *PortfolioService) GetPortfolioDetails(ctx context.Context, ownerID string) (model.PortfolioDetails, error) {
	snap, err := s.GetSnapshot(ctx, ownerID)
	if err != nil {
		return model.PortfolioDetails{}, err
	}
	log := logger.FromContext(ctx).With("owner", ownerID)

	details := model.PortfolioDetails{
		OwnerID:  ownerID,
		Cash:     snap.Cash(),
		Holdings: []model.ValuedHolding{},
	}
	for _, h := range snap.Equities() {
		bars, err := s.bars.GetTickerBars(ctx, h.Symbol)
		if err != nil {
			return model.PortfolioDetails{}, err
		}
		if len(bars) == 0 {
			return model.PortfolioDetails{}, fmt.Errorf("%w: no bars for %s", apperrors.ErrMarketDataUnavailable, h.Symbol)
		}
		last := bars[len(bars)-1]
		qty := decimal.NewFromInt(h.Quantity)
		value := last.Close.Mul(qty)

		vh := model.ValuedHolding{
			Symbol:        h.Symbol,
			Quantity:      h.Quantity,
			AverageCost:   h.AverageCost,
			LastClose:     last.Close,
			LastCloseDate: last.Date.Format("2006-01-02"),
			MarketValue:   value,
			UnrealizedGL:  value.Sub(h.AverageCost.Mul(qty)),
		}
		if s.companies != nil {
			info, err := s.companies.GetCompanyInfo(ctx, h.Symbol)
			switch {
			case err == nil:
				vh.LogoURL = info.LogoURL
			case !errors.Is(err, apperrors.ErrCompanyInfoNotFound):
				log.Warn("company info lookup failed", "symbol", h.Symbol, "error", err)
			}
		}
		details.EquityValue = details.EquityValue.Add(value)
		details.Holdings = append(details.Holdings, vh)
	}
	details.TotalValue = details.EquityValue.Add(details.Cash)

	if details.TotalValue.IsPositive() {
		for i := range details.Holdings {
			details.Holdings[i].Weight = details.Holdings[i].MarketValue.Div(details.TotalValue).InexactFloat64()
		}
	}
	sort.SliceStable(details.Holdings, func(i, j int) bool {
		return details.Holdings[i].MarketValue.GreaterThan(details.Holdings[j].MarketValue)
	})
	return details, nil
}

// TopHoldings values the portfolio like GetPortfolioDetails and keeps only
// the n largest positions; totals still cover every position. n <= 0 keeps
// them all.
func (s *PortfolioService) TopHoldings(ctx context.Context, ownerID string, n int) (model.PortfolioDetails, error) {
	details, err := s.GetPortfolioDetails(ctx, ownerID)
	if err != nil {
		return model.PortfolioDetails{}, err
	}
	if n > 0 && len(details.Holdings) > n {
		details.Holdings = details.Holdings[:n]
	}
	return details, nil
}
