package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adithyabsk/portfoliohut/internal/api/request"
	"github.com/adithyabsk/portfoliohut/internal/logger"
	"github.com/adithyabsk/portfoliohut/internal/model"
	"github.com/adithyabsk/portfoliohut/internal/repository"
)

// ProfileService handles profile operations.
type ProfileService struct {
	profileRepo *repository.ProfileRepository
	invalidator Invalidator
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profileRepo *repository.ProfileRepository, invalidator Invalidator) *ProfileService {
	return &ProfileService{profileRepo: profileRepo, invalidator: invalidator}
}

// CreateProfile creates a new profile. The request must already be validated.
// Visibility defaults to public.
func (s *ProfileService) CreateProfile(ctx context.Context, req request.CreateProfileRequest) (*model.Profile, error) {
	visibility := model.Visibility(strings.ToLower(strings.TrimSpace(req.Visibility)))
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	profile := &model.Profile{
		ID:          uuid.New().String(),
		Username:    strings.TrimSpace(req.Username),
		DisplayName: strings.TrimSpace(req.DisplayName),
		Visibility:  visibility,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := s.profileRepo.InsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}

	logger.FromContext(ctx).Info("created profile", "owner", profile.ID, "username", profile.Username)
	return profile, nil
}

// GetProfile retrieves a profile by ID.
func (s *ProfileService) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	return s.profileRepo.GetProfile(ctx, id)
}

// GetPublicProfiles lists the profiles shown on the public leaderboard.
func (s *ProfileService) GetPublicProfiles(ctx context.Context) ([]model.Profile, error) {
	return s.profileRepo.GetProfiles(ctx, true)
}

// GetProfiles lists every profile.
func (s *ProfileService) GetProfiles(ctx context.Context) ([]model.Profile, error) {
	return s.profileRepo.GetProfiles(ctx, false)
}
