package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/collegematch/collegematch-engine/pkg/apperrors"
	"github.com/collegematch/collegematch-engine/pkg/catalog"
	"github.com/collegematch/collegematch-engine/pkg/models"
	"github.com/collegematch/collegematch-engine/pkg/ranking"
)

// mockProfileRepository keeps profiles in memory keyed by user.
type mockProfileRepository struct {
	mu        sync.Mutex
	profiles  map[string]*models.Profile
	upsertErr error
	getErr    error
}

func newMockProfileRepository(profiles ...*models.Profile) *mockProfileRepository {
	m := &mockProfileRepository{profiles: make(map[string]*models.Profile)}
	for _, p := range profiles {
		m.profiles[p.UserID] = p
	}
	return m
}

func (m *mockProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.profiles[profile.UserID]; ok {
		profile.ID = existing.ID
	} else if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	m.profiles[profile.UserID] = profile
	return nil
}

func (m *mockProfileRepository) GetByUser(ctx context.Context, userID string) (*models.Profile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (m *mockProfileRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Profile, error) {
	p, err := m.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.ID != id {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

// mockSearchResultRepository records created results.
type mockSearchResultRepository struct {
	mu        sync.Mutex
	created   []*models.SearchResult
	createErr error
	summaries []*models.SearchSummary

	capturedLimit int
}

func (m *mockSearchResultRepository) Create(ctx context.Context, result *models.SearchResult) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result.ID = uuid.New()
	m.created = append(m.created, result)
	return nil
}

func (m *mockSearchResultRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.created {
		if r.ID == id && r.UserID == userID {
			return r, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockSearchResultRepository) Latest(ctx context.Context, userID string) (*models.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.created) - 1; i >= 0; i-- {
		if m.created[i].UserID == userID {
			return m.created[i], nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockSearchResultRepository) List(ctx context.Context, userID string, limit int) ([]*models.SearchSummary, error) {
	m.capturedLimit = limit
	return m.summaries, nil
}

// mockFetcher returns a fixed result or runs FetchFunc.
type mockFetcher struct {
	result    *catalog.FetchResult
	err       error
	FetchFunc func(ctx context.Context, filters catalog.Filters) (*catalog.FetchResult, error)

	capturedFilters catalog.Filters
	calls           int
}

func (m *mockFetcher) Fetch(ctx context.Context, filters catalog.Filters) (*catalog.FetchResult, error) {
	m.calls++
	m.capturedFilters = filters
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, filters)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockRanker returns a fixed ranking or error.
type mockRanker struct {
	ranking *ranking.Ranking
	err     error
	calls   int
}

func (m *mockRanker) Rank(ctx context.Context, profile *models.Profile, candidates []models.Candidate) (*ranking.Ranking, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.ranking, nil
}

// mockSavedCollegeRepository keeps bookmarks in memory.
type mockSavedCollegeRepository struct {
	saved map[string]*models.SavedCollege
}

func newMockSavedCollegeRepository() *mockSavedCollegeRepository {
	return &mockSavedCollegeRepository{saved: make(map[string]*models.SavedCollege)}
}

func (m *mockSavedCollegeRepository) key(userID, collegeID string) string {
	return userID + "/" + collegeID
}

func (m *mockSavedCollegeRepository) Save(ctx context.Context, college *models.SavedCollege) (*models.SavedCollege, bool, error) {
	k := m.key(college.UserID, college.CollegeID)
	if existing, ok := m.saved[k]; ok {
		return existing, false, nil
	}
	college.ID = uuid.New()
	m.saved[k] = college
	return college, true, nil
}

func (m *mockSavedCollegeRepository) Delete(ctx context.Context, userID, collegeID string) error {
	k := m.key(userID, collegeID)
	if _, ok := m.saved[k]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.saved, k)
	return nil
}

func (m *mockSavedCollegeRepository) List(ctx context.Context, userID string) ([]*models.SavedCollege, error) {
	var out []*models.SavedCollege
	for _, c := range m.saved {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockSavedCollegeRepository) Exists(ctx context.Context, userID, collegeID string) (bool, error) {
	_, ok := m.saved[m.key(userID, collegeID)]
	return ok, nil
}
