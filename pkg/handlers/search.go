package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/auth"
	"github.com/collegematch/collegematch-engine/pkg/middleware"
	"github.com/collegematch/collegematch-engine/pkg/models"
	"github.com/collegematch/collegematch-engine/pkg/services"
)

// CreateSearchRequest is the optional body of POST /api/searches.
type CreateSearchRequest struct {
	ProfileID *uuid.UUID `json:"profile_id,omitempty"`
}

// SearchResponse pairs a stored result with a short human-readable summary.
type SearchResponse struct {
	Result  *models.SearchResult `json:"result"`
	Message string               `json:"message"`
}

// SearchHistoryResponse for GET /api/searches
type SearchHistoryResponse struct {
	Searches []*models.SearchSummary `json:"searches"`
	Total    int                     `json:"total"`
}

// SearchHandler handles college search HTTP requests.
type SearchHandler struct {
	searchService services.SearchService
	limiter       *middleware.UserRateLimiter
	logger        *zap.Logger
}

// NewSearchHandler creates a new search handler. limiter may be nil.
func NewSearchHandler(searchService services.SearchService, limiter *middleware.UserRateLimiter, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		limiter:       limiter,
		logger:        logger,
	}
}

// RegisterRoutes registers the search handler's routes on the given mux.
func (h *SearchHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	create := h.Create
	if h.limiter != nil {
		create = h.limiter.Limit(create)
	}

	mux.HandleFunc("POST /api/searches", authMiddleware.RequireAuth(create))
	mux.HandleFunc("GET /api/searches", authMiddleware.RequireAuth(h.History))
	mux.HandleFunc("GET /api/searches/latest", authMiddleware.RequireAuth(h.Latest))
	mux.HandleFunc("GET /api/searches/{id}", authMiddleware.RequireAuth(h.Get))
}

// Create handles POST /api/searches
func (h *SearchHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	profileID := uuid.Nil
	if req.ProfileID != nil {
		profileID = *req.ProfileID
	}

	result, err := h.searchService.Search(r.Context(), userID, profileID)
	if err != nil {
		writeServiceError(w, h.logger, "College search failed", err)
		return
	}

	response := SearchResponse{Result: result, Message: summarize(result)}
	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// summarize describes a result in one sentence, e.g. "Found 12 colleges, ranked for your profile."
func summarize(result *models.SearchResult) string {
	n := len(result.Candidates)
	noun := "college"
	if n != 1 {
		noun = inflection.Plural(noun)
	}

	switch result.RankingStatus {
	case models.RankingStatusRanked:
		return fmt.Sprintf("Found %d %s, ranked for your profile.", n, noun)
	case models.RankingStatusDegraded:
		return fmt.Sprintf("Found %d %s. Ranking is unavailable right now, so results are unranked.", n, noun)
	default:
		return fmt.Sprintf("Found %d %s.", n, noun)
	}
}

// Get handles GET /api/searches/{id}
func (h *SearchHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseSearchID(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.searchService.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to get search result", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Latest handles GET /api/searches/latest
func (h *SearchHandler) Latest(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.searchService.Latest(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to get latest search result", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// History handles GET /api/searches?limit=N
func (h *SearchHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	limit, ok := ParseLimit(w, r, h.logger)
	if !ok {
		return
	}

	summaries, err := h.searchService.History(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to list search history", err)
		return
	}
	if summaries == nil {
		summaries = []*models.SearchSummary{}
	}

	response := SearchHistoryResponse{Searches: summaries, Total: len(summaries)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
