package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/apperrors"
	"github.com/collegematch/collegematch-engine/pkg/audit"
	"github.com/collegematch/collegematch-engine/pkg/models"
	"github.com/collegematch/collegematch-engine/pkg/repositories"
)

// ProfileService defines the interface for student profile operations.
type ProfileService interface {
	// Save validates and stores the user's profile, replacing any existing one.
	Save(ctx context.Context, userID string, profile *models.Profile) (*models.Profile, error)
	// Get returns the user's active profile.
	Get(ctx context.Context, userID string) (*models.Profile, error)
}

type profileService struct {
	profileRepo repositories.ProfileRepository
	auditor     *audit.SecurityAuditor
	logger      *zap.Logger
}

var _ ProfileService = (*profileService)(nil)

// NewProfileService creates a new profile service with dependencies.
func NewProfileService(profileRepo repositories.ProfileRepository, auditor *audit.SecurityAuditor, logger *zap.Logger) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		auditor:     auditor,
		logger:      logger.Named("profile-service"),
	}
}

func (s *profileService) Save(ctx context.Context, userID string, profile *models.Profile) (*models.Profile, error) {
	profile.UserID = userID
	profile.Normalize()
	if err := profile.Validate(); err != nil {
		var dc *models.DisallowedContentError
		if errors.As(err, &dc) {
			s.auditor.LogInjectionAttempt(userID, audit.InjectionDetails{Field: dc.Field, Value: dc.Value})
		}
		return nil, apperrors.NewWithMessage(apperrors.KindInvalidInput, err.Error(), err)
	}

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("Saved profile",
		zap.String("user_id", userID),
		zap.String("profile_id", profile.ID.String()))
	return profile, nil
}

func (s *profileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewWithMessage(apperrors.KindNotFound, "Profile not found", err)
		}
		return nil, err
	}
	return profile, nil
}
