package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/apperrors"
	"github.com/collegematch/collegematch-engine/pkg/catalog"
	"github.com/collegematch/collegematch-engine/pkg/config"
	"github.com/collegematch/collegematch-engine/pkg/models"
	"github.com/collegematch/collegematch-engine/pkg/ranking"
)

const testUser = "auth0|student"

func testSearchConfig(policy string) config.SearchConfig {
	return config.SearchConfig{
		Timeout:              5 * time.Second,
		RankingFailurePolicy: policy,
		HistoryLimit:         10,
		MaxHistoryLimit:      50,
	}
}

func testStoredProfile() *models.Profile {
	return &models.Profile{
		ID:                  uuid.New(),
		UserID:              testUser,
		Budget:              95000,
		Major:               "Economics",
		GPA:                 3.8,
		LocationPreferences: []string{"MA", "NY"},
	}
}

func testFetchResult() *catalog.FetchResult {
	return &catalog.FetchResult{
		Candidates: []models.Candidate{
			{ID: "166027", Name: "Harvard University", State: "MA", TuitionInState: 57261},
			{ID: "190150", Name: "Columbia University in the City of New York", State: "NY", TuitionInState: 65340},
		},
		Total:           2,
		EffectiveBudget: 80000,
		BudgetClamped:   true,
	}
}

func testRanking() *ranking.Ranking {
	return &ranking.Ranking{
		Analysis: "raw reply",
		Assignments: []models.RankAssignment{
			{CollegeID: "190150", Rank: 1, CostRating: models.CostRatingFair, FitScore: 80, Analysis: "a"},
			{CollegeID: "166027", Rank: 2, CostRating: models.CostRatingGood, FitScore: 78, Analysis: "b"},
		},
	}
}

type searchFixture struct {
	profiles *mockProfileRepository
	results  *mockSearchResultRepository
	fetcher  *mockFetcher
	ranker   *mockRanker
	profile  *models.Profile
}

func newSearchFixture() *searchFixture {
	p := testStoredProfile()
	return &searchFixture{
		profiles: newMockProfileRepository(p),
		results:  &mockSearchResultRepository{},
		fetcher:  &mockFetcher{result: testFetchResult()},
		ranker:   &mockRanker{ranking: testRanking()},
		profile:  p,
	}
}

func (f *searchFixture) service(cfg config.SearchConfig, withRanker bool) SearchService {
	var r ranking.Ranker
	if withRanker {
		r = f.ranker
	}
	return NewSearchService(cfg, f.profiles, f.results, f.fetcher, r, zap.NewNop())
}

func TestSearch_RankedResultPersisted(t *testing.T) {
	f := newSearchFixture()
	svc := f.service(testSearchConfig(config.PolicyFail), true)

	result, err := svc.Search(context.Background(), testUser, uuid.Nil)
	require.NoError(t, err)

	require.Len(t, f.results.created, 1)
	assert.Same(t, result, f.results.created[0])
	assert.NotEqual(t, uuid.Nil, result.ID)
	assert.Equal(t, models.RankingStatusRanked, result.RankingStatus)
	assert.Equal(t, f.profile.ID, result.ProfileID)
	assert.Len(t, result.Candidates, 2)

	require.Len(t, result.RankedCandidates, 2)
	assert.Equal(t, "Columbia University in the City of New York", result.RankedCandidates[0].Name)
	assert.Equal(t, 1, result.RankedCandidates[0].Rank)
	require.NotNil(t, result.Analysis)
	assert.Equal(t, "raw reply", *result.Analysis)

	assert.Equal(t, 95000.0, result.Filters.Budget)
	assert.Equal(t, 80000.0, result.Filters.EffectiveBudget)
	assert.Equal(t, []string{"MA", "NY"}, f.fetcher.capturedFilters.States)
	assert.Equal(t, 95000.0, f.fetcher.capturedFilters.Budget, "clamping belongs to the fetcher")
}

func TestSearch_NoRankerSkipsRanking(t *testing.T) {
	f := newSearchFixture()
	svc := f.service(testSearchConfig(config.PolicyFail), false)

	result, err := svc.Search(context.Background(), testUser, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, models.RankingStatusSkipped, result.RankingStatus)
	assert.Nil(t, result.RankedCandidates)
	assert.Nil(t, result.Analysis)
	assert.Equal(t, "166027", result.Candidates[0].ID, "fetcher order kept")
	assert.Equal(t, 0, f.ranker.calls)
}

func TestSearch_EachInvocationCreatesNewResult(t *testing.T) {
	f := newSearchFixture()
	svc := f.service(testSearchConfig(config.PolicyFail), true)

	first, err := svc.Search(context.Background(), testUser, uuid.Nil)
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), testUser, uuid.Nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, f.results.created, 2)
}

func TestSearch_ProfileSelection(t *testing.T) {
	f := newSearchFixture()
	svc := f.service(testSearchConfig(config.PolicyFail), false)

	_, err := svc.Search(context.Background(), testUser, f.profile.ID)
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), testUser, uuid.New())
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = svc.Search(context.Background(), "someone-else", f.profile.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err), "another user's profile is not found")
	assert.Equal(t, "Profile not found", apperrors.UserMessage(err))

	assert.Equal(t, 1, f.fetcher.calls)
}

func TestSearch_NoMatches(t *testing.T) {
	f := newSearchFixture()
	f.fetcher.result = &catalog.FetchResult{EffectiveBudget: 80000}
	svc := f.service(testSearchConfig(config.PolicyFail), true)

	_, err := svc.Search(context.Background(), testUser, uuid.Nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNoMatches, apperrors.KindOf(err))
	assert.Contains(t, apperrors.UserMessage(err), "No colleges found")
	assert.Empty(t, f.results.created)
	assert.Equal(t, 0, f.ranker.calls)
}

func TestSearch_UpstreamFailurePropagates(t *testing.T) {
	f := newSearchFixture()
	f.fetcher.err = apperrors.New(apperrors.KindUpstreamUnavailable, errors.New("status 503"))
	svc := f.service(testSearchConfig(config.PolicyDegrade), true)

	_, err := svc.Search(context.Background(), testUser, uuid.Nil)
	assert.Equal(t, apperrors.KindUpstreamUnavailable, apperrors.KindOf(err))
	assert.Empty(t, f.results.created)
}

func TestSearch_RankingFailurePolicy(t *testing.T) {
	rateLimited := apperrors.New(apperrors.KindRankingRateLimited, errors.New("429"))
	referential := apperrors.New(apperrors.KindReferentialIntegrity, errors.New("unknown id"))

	tests := []struct {
		name       string
		policy     string
		rankErr    error
		wantKind   apperrors.Kind
		wantStatus string
	}{
		{"fail propagates", config.PolicyFail, rateLimited, apperrors.KindRankingRateLimited, ""},
		{"degrade keeps unranked result", config.PolicyDegrade, rateLimited, "", models.RankingStatusDegraded},
		{"referential fatal under fail", config.PolicyFail, referential, apperrors.KindReferentialIntegrity, ""},
		{"referential fatal under degrade", config.PolicyDegrade, referential, apperrors.KindReferentialIntegrity, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSearchFixture()
			f.ranker.err = tt.rankErr
			svc := f.service(testSearchConfig(tt.policy), true)

			result, err := svc.Search(context.Background(), testUser, uuid.Nil)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
				assert.Empty(t, f.results.created, "nothing persisted")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, result.RankingStatus)
			assert.Equal(t, string(apperrors.KindRankingRateLimited), result.RankingError)
			assert.Nil(t, result.RankedCandidates)
			assert.Len(t, f.results.created, 1)
		})
	}
}

func TestSearch_MergeViolationIsFatal(t *testing.T) {
	f := newSearchFixture()
	f.ranker.ranking = &ranking.Ranking{Assignments: []models.RankAssignment{
		{CollegeID: "000000", Rank: 1, CostRating: models.CostRatingGood, FitScore: 50},
	}}
	svc := f.service(testSearchConfig(config.PolicyDegrade), true)

	_, err := svc.Search(context.Background(), testUser, uuid.Nil)
	assert.Equal(t, apperrors.KindReferentialIntegrity, apperrors.KindOf(err))
	assert.Empty(t, f.results.created)
}

func TestSearch_DeadlineIsTimeout(t *testing.T) {
	f := newSearchFixture()
	f.fetcher.FetchFunc = func(ctx context.Context, filters catalog.Filters) (*catalog.FetchResult, error) {
		<-ctx.Done()
		return nil, fmt.Errorf("fetch colleges: %w", ctx.Err())
	}
	cfg := testSearchConfig(config.PolicyDegrade)
	cfg.Timeout = 20 * time.Millisecond
	svc := f.service(cfg, true)

	_, err := svc.Search(context.Background(), testUser, uuid.Nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindTimeout, apperrors.KindOf(err))
	assert.Equal(t, "The search took too long. Please try again.", apperrors.UserMessage(err))
	assert.Empty(t, f.results.created)
}

func TestSearch_PersistFailure(t *testing.T) {
	f := newSearchFixture()
	f.results.createErr = errors.New("connection reset")
	svc := f.service(testSearchConfig(config.PolicyFail), true)

	_, err := svc.Search(context.Background(), testUser, uuid.Nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "persist search result")
}

func TestSearchHistory(t *testing.T) {
	f := newSearchFixture()
	svc := f.service(testSearchConfig(config.PolicyFail), false)
	ctx := context.Background()

	_, err := svc.Latest(ctx, testUser)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	created, err := svc.Search(ctx, testUser, uuid.Nil)
	require.NoError(t, err)

	latest, err := svc.Latest(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, created.ID, latest.ID)

	got, err := svc.Get(ctx, testUser, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Get(ctx, "someone-else", created.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Equal(t, "Search result not found", apperrors.UserMessage(err))

	for _, tc := range []struct{ in, want int }{{0, 10}, {-3, 10}, {5, 5}, {500, 50}} {
		_, err := svc.History(ctx, testUser, tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, f.results.capturedLimit, "limit %d", tc.in)
	}
}
