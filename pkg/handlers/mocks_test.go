package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/auth"
	"github.com/collegematch/collegematch-engine/pkg/models"
)

const testUser = "auth0|student"

// fakeAuthService accepts any request carrying an X-Test-User header.
type fakeAuthService struct{}

func (fakeAuthService) ValidateRequest(r *http.Request) (*auth.Claims, error) {
	sub := r.Header.Get("X-Test-User")
	if sub == "" {
		return nil, errors.New("no token")
	}
	claims := &auth.Claims{}
	claims.Subject = sub
	return claims, nil
}

func testAuthMiddleware() *auth.Middleware {
	return auth.NewMiddleware(fakeAuthService{}, zap.NewNop())
}

type mockProfileService struct {
	saveFunc func(ctx context.Context, userID string, profile *models.Profile) (*models.Profile, error)
	getFunc  func(ctx context.Context, userID string) (*models.Profile, error)
}

func (m *mockProfileService) Save(ctx context.Context, userID string, profile *models.Profile) (*models.Profile, error) {
	return m.saveFunc(ctx, userID, profile)
}

func (m *mockProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	return m.getFunc(ctx, userID)
}

type mockSearchService struct {
	searchFunc  func(ctx context.Context, userID string, profileID uuid.UUID) (*models.SearchResult, error)
	getFunc     func(ctx context.Context, userID string, id uuid.UUID) (*models.SearchResult, error)
	latestFunc  func(ctx context.Context, userID string) (*models.SearchResult, error)
	historyFunc func(ctx context.Context, userID string, limit int) ([]*models.SearchSummary, error)
}

func (m *mockSearchService) Search(ctx context.Context, userID string, profileID uuid.UUID) (*models.SearchResult, error) {
	return m.searchFunc(ctx, userID, profileID)
}

func (m *mockSearchService) Get(ctx context.Context, userID string, id uuid.UUID) (*models.SearchResult, error) {
	return m.getFunc(ctx, userID, id)
}

func (m *mockSearchService) Latest(ctx context.Context, userID string) (*models.SearchResult, error) {
	return m.latestFunc(ctx, userID)
}

func (m *mockSearchService) History(ctx context.Context, userID string, limit int) ([]*models.SearchSummary, error) {
	return m.historyFunc(ctx, userID, limit)
}

type mockSavedCollegeService struct {
	saved map[string]*models.SavedCollege
	err   error
}

func newMockSavedCollegeService() *mockSavedCollegeService {
	return &mockSavedCollegeService{saved: make(map[string]*models.SavedCollege)}
}

func (m *mockSavedCollegeService) Save(ctx context.Context, userID string, college models.Candidate) (*models.SavedCollege, error) {
	if m.err != nil {
		return nil, m.err
	}
	if existing, ok := m.saved[college.ID]; ok {
		return existing, nil
	}
	sc := models.NewSavedCollege(userID, college)
	sc.ID = uuid.New()
	m.saved[college.ID] = sc
	return sc, nil
}

func (m *mockSavedCollegeService) Remove(ctx context.Context, userID, collegeID string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.saved, collegeID)
	return nil
}

func (m *mockSavedCollegeService) List(ctx context.Context, userID string) ([]*models.SavedCollege, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.SavedCollege
	for _, sc := range m.saved {
		out = append(out, sc)
	}
	return out, nil
}

func (m *mockSavedCollegeService) IsSaved(ctx context.Context, userID, collegeID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.saved[collegeID]
	return ok, nil
}
