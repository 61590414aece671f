package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/apperrors"
	"github.com/collegematch/collegematch-engine/pkg/models"
)

func newProfileMux(svc *mockProfileService) *http.ServeMux {
	mux := http.NewServeMux()
	NewProfileHandler(svc, zap.NewNop()).RegisterRoutes(mux, testAuthMiddleware())
	return mux
}

func TestProfileHandler_Save(t *testing.T) {
	var captured *models.Profile
	svc := &mockProfileService{
		saveFunc: func(ctx context.Context, userID string, profile *models.Profile) (*models.Profile, error) {
			captured = profile
			profile.ID = uuid.New()
			profile.UserID = userID
			return profile, nil
		},
	}

	body := `{"budget":42000,"income":65000,"major":"Biology","gpa":3.7,"test_scores":{"sat":1350},"location_preferences":["CA"],"user_id":"spoofed"}`
	req := httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(body))
	req.Header.Set("X-Test-User", testUser)
	rec := httptest.NewRecorder()
	newProfileMux(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, testUser, captured.UserID, "identity comes from the token, not the body")
	assert.Equal(t, 1350, *captured.TestScores.SAT)

	var resp ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
}

func TestProfileHandler_SaveValidationError(t *testing.T) {
	svc := &mockProfileService{
		saveFunc: func(ctx context.Context, userID string, profile *models.Profile) (*models.Profile, error) {
			return nil, apperrors.NewWithMessage(apperrors.KindInvalidInput, "budget must be greater than 0", nil)
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(`{"budget":0}`))
	req.Header.Set("X-Test-User", testUser)
	rec := httptest.NewRecorder()
	newProfileMux(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "invalid_input", body["error"])
	assert.Equal(t, "budget must be greater than 0", body["message"])
}

func TestProfileHandler_SaveMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(`{`))
	req.Header.Set("X-Test-User", testUser)
	rec := httptest.NewRecorder()
	newProfileMux(&mockProfileService{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileHandler_Get(t *testing.T) {
	svc := &mockProfileService{
		getFunc: func(ctx context.Context, userID string) (*models.Profile, error) {
			if userID != testUser {
				return nil, apperrors.NewWithMessage(apperrors.KindNotFound, "Profile not found", apperrors.ErrNotFound)
			}
			return &models.Profile{ID: uuid.New(), UserID: userID, Major: "Biology"}, nil
		},
	}
	mux := newProfileMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("X-Test-User", testUser)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Biology")

	req = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("X-Test-User", "someone-else")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Profile not found")
}

func TestProfileHandler_RequiresAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	newProfileMux(&mockProfileService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
