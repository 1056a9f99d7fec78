package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/repository"
	"github.com/adithyabsk/portfoliohut/internal/valuation"
)

// DefaultLeaderboardSize is the number of leaders shown on the public board.
const DefaultLeaderboardSize = 10

// RankingService ranks owners by their most recent cumulative return.
// Results are cached until the TTL passes or a ledger write invalidates them.
type RankingService struct {
	profileRepo *repository.ProfileRepository
	returnsRepo *repository.ReturnsRepository
	cache       *cache.Cache
}

// NewRankingService creates a new RankingService.
func NewRankingService(
	profileRepo *repository.ProfileRepository,
	returnsRepo *repository.ReturnsRepository,
	ttl time.Duration,
) *RankingService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RankingService{
		profileRepo: profileRepo,
		returnsRepo: returnsRepo,
		cache:       cache.New(ttl, 2*ttl),
	}
}

// Leaderboard ranks the given owners. Owners without a return are ranked
// last; unknown owner IDs are skipped.
func (s *RankingService) Leaderboard(ctx context.Context, ownerIDs []string) ([]model.LeaderboardRow, error) {
	ids := append([]string(nil), ownerIDs...)
	sort.Strings(ids)
	key := "owners:" + strings.Join(ids, ",")
	if v, ok := s.cache.Get(key); ok {
		return v.([]model.LeaderboardRow), nil
	}

	profiles, err := s.profileRepo.GetProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveLeaderboard, err)
	}
	rows, err := s.rank(ctx, profiles)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, rows)
	return rows, nil
}

// PublicLeaderboard ranks every public profile and keeps the top limit.
// A non-positive limit uses DefaultLeaderboardSize.
func (s *RankingService) PublicLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardRow, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	key := fmt.Sprintf("public:%d", limit)
	if v, ok := s.cache.Get(key); ok {
		return v.([]model.LeaderboardRow), nil
	}

	profiles, err := s.profileRepo.GetProfiles(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveLeaderboard, err)
	}
	rows, err := s.rank(ctx, profiles)
	if err != nil {
		return nil, err
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	s.cache.SetDefault(key, rows)
	return rows, nil
}

// Invalidate drops every cached leaderboard.
func (s *RankingService) Invalidate() {
	if s == nil {
		return
	}
	s.cache.Flush()
}

func (s *RankingService) rank(ctx context.Context, profiles []model.Profile) ([]model.LeaderboardRow, error) {
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}

	series := make(map[string][]model.ReturnPoint, len(ids))
	err := s.returnsRepo.StreamReturnPoints(ctx, ids, func(ownerID string, p model.ReturnPoint) error {
		series[ownerID] = append(series[ownerID], p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveLeaderboard, err)
	}

	rows := make([]model.LeaderboardRow, len(profiles))
	for i, p := range profiles {
		rows[i] = model.LeaderboardRow{
			OwnerID:     p.ID,
			Username:    p.Username,
			DisplayName: p.DisplayName,
		}
		if value, _, ok := valuation.MostRecent(series[p.ID]); ok {
			pct := value * 100
			rows[i].ReturnPct = &pct
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].ReturnPct, rows[j].ReturnPct
		switch {
		case a == nil && b == nil:
			return rows[i].Username < rows[j].Username
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a > *b
		default:
			return rows[i].Username < rows[j].Username
		}
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}
