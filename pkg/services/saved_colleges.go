package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/apperrors"
	"github.com/collegematch/collegematch-engine/pkg/models"
	"github.com/collegematch/collegematch-engine/pkg/repositories"
)

// SavedCollegeService manages a user's college bookmarks.
type SavedCollegeService interface {
	// Save bookmarks the candidate. Saving twice returns the first record.
	Save(ctx context.Context, userID string, college models.Candidate) (*models.SavedCollege, error)
	Remove(ctx context.Context, userID, collegeID string) error
	List(ctx context.Context, userID string) ([]*models.SavedCollege, error)
	IsSaved(ctx context.Context, userID, collegeID string) (bool, error)
}

type savedCollegeService struct {
	repo   repositories.SavedCollegeRepository
	logger *zap.Logger
}

var _ SavedCollegeService = (*savedCollegeService)(nil)

// NewSavedCollegeService creates a new saved college service.
func NewSavedCollegeService(repo repositories.SavedCollegeRepository, logger *zap.Logger) SavedCollegeService {
	return &savedCollegeService{
		repo:   repo,
		logger: logger.Named("saved-colleges"),
	}
}

func (s *savedCollegeService) Save(ctx context.Context, userID string, college models.Candidate) (*models.SavedCollege, error) {
	college.ID = strings.TrimSpace(college.ID)
	college.Name = strings.TrimSpace(college.Name)
	if err := validateBookmark(college); err != nil {
		return nil, apperrors.NewWithMessage(apperrors.KindInvalidInput, err.Error(), err)
	}

	saved, created, err := s.repo.Save(ctx, models.NewSavedCollege(userID, college))
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("Saved college",
			zap.String("user_id", userID),
			zap.String("college_id", college.ID))
	}
	return saved, nil
}

func validateBookmark(c models.Candidate) error {
	switch {
	case c.ID == "":
		return fmt.Errorf("college id is required")
	case c.Name == "":
		return fmt.Errorf("college name is required")
	case c.TuitionInState < 0:
		return fmt.Errorf("tuition_in_state must be at least 0")
	}
	return nil
}

func (s *savedCollegeService) Remove(ctx context.Context, userID, collegeID string) error {
	err := s.repo.Delete(ctx, userID, collegeID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewWithMessage(apperrors.KindNotFound, "Saved college not found", err)
	}
	return err
}

func (s *savedCollegeService) List(ctx context.Context, userID string) ([]*models.SavedCollege, error) {
	return s.repo.List(ctx, userID)
}

func (s *savedCollegeService) IsSaved(ctx context.Context, userID, collegeID string) (bool, error) {
	return s.repo.Exists(ctx, userID, collegeID)
}
