package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/apperrors"
)

func newSavedCollegeMux(svc *mockSavedCollegeService) *http.ServeMux {
	mux := http.NewServeMux()
	NewSavedCollegeHandler(svc, zap.NewNop()).RegisterRoutes(mux, testAuthMiddleware())
	return mux
}

func TestSavedCollegeHandler_Lifecycle(t *testing.T) {
	svc := newMockSavedCollegeService()
	mux := newSavedCollegeMux(svc)

	body := `{"id":"110635","name":"University of California-Berkeley","city":"Berkeley","state":"CA","tuition_in_state":14312}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/saved-colleges", body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"college_id":"110635"`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/saved-colleges/110635", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		Data SavedStatusResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.True(t, status.Data.Saved)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/saved-colleges", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data SavedCollegeListResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, 1, list.Data.Total)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/saved-colleges/110635", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.saved)
}

func TestSavedCollegeHandler_EmptyList(t *testing.T) {
	rec := httptest.NewRecorder()
	newSavedCollegeMux(newMockSavedCollegeService()).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/saved-colleges", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"colleges":[]`)
}

func TestSavedCollegeHandler_Errors(t *testing.T) {
	svc := newMockSavedCollegeService()
	mux := newSavedCollegeMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/saved-colleges", "not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.err = apperrors.NewWithMessage(apperrors.KindNotFound, "Saved college not found", apperrors.ErrNotFound)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/saved-colleges/999", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Saved college not found")

	svc.err = apperrors.NewWithMessage(apperrors.KindInvalidInput, "college name is required", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/saved-colleges", `{"id":"1"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.err = errors.New("db down")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/saved-colleges", ""))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}
