package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/apperrors"
	"github.com/collegematch/collegematch-engine/pkg/catalog"
	"github.com/collegematch/collegematch-engine/pkg/config"
	"github.com/collegematch/collegematch-engine/pkg/metrics"
	"github.com/collegematch/collegematch-engine/pkg/models"
	"github.com/collegematch/collegematch-engine/pkg/ranking"
	"github.com/collegematch/collegematch-engine/pkg/repositories"
)

// SearchService runs the college search pipeline and serves search history.
type SearchService interface {
	// Search loads the profile, fetches candidates, ranks them when a ranker
	// is configured, and persists one new SearchResult. uuid.Nil as profileID selects
	// the user's active profile.
	Search(ctx context.Context, userID string, profileID uuid.UUID) (*models.SearchResult, error)
	// Get returns one of the user's search results.
	Get(ctx context.Context, userID string, id uuid.UUID) (*models.SearchResult, error)
	// Latest returns the user's most recent search result.
	Latest(ctx context.Context, userID string) (*models.SearchResult, error)
	// History returns up to limit summaries, newest first. The limit is
	// defaulted and capped by configuration.
	History(ctx context.Context, userID string, limit int) ([]*models.SearchSummary, error)
}

type searchService struct {
	cfg         config.SearchConfig
	profileRepo repositories.ProfileRepository
	resultRepo  repositories.SearchResultRepository
	fetcher     catalog.Fetcher
	ranker      ranking.Ranker // nil when ranking is disabled
	logger      *zap.Logger
}

var _ SearchService = (*searchService)(nil)

// NewSearchService creates the search orchestrator. ranker may be nil, in
// which case results are stored unranked with status "skipped".
func NewSearchService(
	cfg config.SearchConfig,
	profileRepo repositories.ProfileRepository,
	resultRepo repositories.SearchResultRepository,
	fetcher catalog.Fetcher,
	ranker ranking.Ranker,
	logger *zap.Logger,
) SearchService {
	return &searchService{
		cfg:         cfg,
		profileRepo: profileRepo,
		resultRepo:  resultRepo,
		fetcher:     fetcher,
		ranker:      ranker,
		logger:      logger.Named("search-service"),
	}
}

func (s *searchService) Search(ctx context.Context, userID string, profileID uuid.UUID) (*models.SearchResult, error) {
	start := time.Now()
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	result, err := s.run(ctx, userID, profileID)
	metrics.SearchDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())

	if err != nil {
		err = classifyDeadline(ctx, err)
		kind := apperrors.KindOf(err)
		metrics.SearchesCompleted.WithLabelValues(string(kind)).Inc()
		s.logger.Error("Search failed",
			zap.String("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	metrics.SearchesCompleted.WithLabelValues(result.RankingStatus).Inc()
	s.logger.Info("Search completed",
		zap.String("user_id", userID),
		zap.String("search_result_id", result.ID.String()),
		zap.String("ranking_status", result.RankingStatus),
		zap.Int("candidates", len(result.Candidates)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (s *searchService) run(ctx context.Context, userID string, profileID uuid.UUID) (*models.SearchResult, error) {
	profile, err := s.loadProfile(ctx, userID, profileID)
	if err != nil {
		return nil, err
	}

	filters := profile.SearchFilters()

	// The fetcher records the "fetch" stage itself.
	fetched, err := s.fetcher.Fetch(ctx, catalog.Filters{
		Budget: filters.Budget,
		States: filters.States,
		Major:  filters.Major,
	})
	if err != nil {
		return nil, err
	}
	if len(fetched.Candidates) == 0 {
		return nil, apperrors.New(apperrors.KindNoMatches, nil)
	}
	filters.EffectiveBudget = fetched.EffectiveBudget

	result := &models.SearchResult{
		UserID:     userID,
		ProfileID:  profile.ID,
		Candidates: fetched.Candidates,
		Filters:    filters,
	}

	if err := s.rank(ctx, profile, result); err != nil {
		return nil, err
	}

	persistStart := time.Now()
	err = s.resultRepo.Create(ctx, result)
	metrics.SearchDuration.WithLabelValues("persist").Observe(time.Since(persistStart).Seconds())
	if err != nil {
		return nil, fmt.Errorf("persist search result: %w", err)
	}
	return result, nil
}

func (s *searchService) loadProfile(ctx context.Context, userID string, profileID uuid.UUID) (*models.Profile, error) {
	var (
		profile *models.Profile
		err     error
	)
	if profileID == uuid.Nil {
		profile, err = s.profileRepo.GetByUser(ctx, userID)
	} else {
		profile, err = s.profileRepo.GetByID(ctx, userID, profileID)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewWithMessage(apperrors.KindNotFound, "Profile not found", err)
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// rank fills the ranking fields of result according to the failure policy.
// Referential integrity violations fail the search under every policy.
func (s *searchService) rank(ctx context.Context, profile *models.Profile, result *models.SearchResult) error {
	if s.ranker == nil {
		result.RankingStatus = models.RankingStatusSkipped
		return nil
	}

	rk, err := s.ranker.Rank(ctx, profile, result.Candidates)
	if err == nil {
		ranked, mergeErr := ranking.Merge(result.Candidates, rk.Assignments)
		if mergeErr != nil {
			return mergeErr
		}
		analysis := rk.Analysis
		result.Analysis = &analysis
		result.RankedCandidates = ranked
		result.RankingStatus = models.RankingStatusRanked
		return nil
	}

	if ctx.Err() != nil {
		return err
	}
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindReferentialIntegrity || s.cfg.RankingFailurePolicy != config.PolicyDegrade {
		return err
	}

	s.logger.Warn("Ranking failed, storing unranked result",
		zap.String("user_id", result.UserID),
		zap.String("kind", string(kind)),
		zap.Error(err))
	result.RankingStatus = models.RankingStatusDegraded
	result.RankingError = string(kind)
	return nil
}

// classifyDeadline reports pipeline deadline expiry as a timeout, whatever
// stage it interrupted.
func classifyDeadline(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.New(apperrors.KindTimeout, err)
	}
	return err
}

func (s *searchService) Get(ctx context.Context, userID string, id uuid.UUID) (*models.SearchResult, error) {
	result, err := s.resultRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, notFoundAs(err, "Search result not found")
	}
	return result, nil
}

func (s *searchService) Latest(ctx context.Context, userID string) (*models.SearchResult, error) {
	result, err := s.resultRepo.Latest(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "No searches yet")
	}
	return result, nil
}

func (s *searchService) History(ctx context.Context, userID string, limit int) ([]*models.SearchSummary, error) {
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	if s.cfg.MaxHistoryLimit > 0 && limit > s.cfg.MaxHistoryLimit {
		limit = s.cfg.MaxHistoryLimit
	}
	return s.resultRepo.List(ctx, userID, limit)
}

func notFoundAs(err error, message string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewWithMessage(apperrors.KindNotFound, message, err)
	}
	return err
}
