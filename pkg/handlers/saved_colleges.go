package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/auth"
	"github.com/collegematch/collegematch-engine/pkg/models"
	"github.com/collegematch/collegematch-engine/pkg/services"
)

// SavedCollegeListResponse for GET /api/saved-colleges
type SavedCollegeListResponse struct {
	Colleges []*models.SavedCollege `json:"colleges"`
	Total    int                    `json:"total"`
}

// SavedStatusResponse for GET /api/saved-colleges/{collegeId}
type SavedStatusResponse struct {
	Saved bool `json:"saved"`
}

// SavedCollegeHandler handles college bookmark HTTP requests.
type SavedCollegeHandler struct {
	savedService services.SavedCollegeService
	logger       *zap.Logger
}

// NewSavedCollegeHandler creates a new saved college handler.
func NewSavedCollegeHandler(savedService services.SavedCollegeService, logger *zap.Logger) *SavedCollegeHandler {
	return &SavedCollegeHandler{
		savedService: savedService,
		logger:       logger,
	}
}

// RegisterRoutes registers the saved college handler's routes on the given mux.
func (h *SavedCollegeHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/saved-colleges"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(h.Save))
	mux.HandleFunc("GET "+base+"/{collegeId}", authMiddleware.RequireAuth(h.Status))
	mux.HandleFunc("DELETE "+base+"/{collegeId}", authMiddleware.RequireAuth(h.Remove))
}

// Save handles POST /api/saved-colleges
func (h *SavedCollegeHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var college models.Candidate
	if err := json.NewDecoder(r.Body).Decode(&college); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	saved, err := h.savedService.Save(r.Context(), userID, college)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to save college", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: saved}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Remove handles DELETE /api/saved-colleges/{collegeId}
func (h *SavedCollegeHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	collegeID, ok := ParseCollegeID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.savedService.Remove(r.Context(), userID, collegeID); err != nil {
		writeServiceError(w, h.logger, "Failed to remove saved college", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: map[string]string{"status": "deleted"}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/saved-colleges
func (h *SavedCollegeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	colleges, err := h.savedService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to list saved colleges", err)
		return
	}
	if colleges == nil {
		colleges = []*models.SavedCollege{}
	}

	response := SavedCollegeListResponse{Colleges: colleges, Total: len(colleges)}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Status handles GET /api/saved-colleges/{collegeId}
func (h *SavedCollegeHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	collegeID, ok := ParseCollegeID(w, r, h.logger)
	if !ok {
		return
	}

	saved, err := h.savedService.IsSaved(r.Context(), userID, collegeID)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to check saved college", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: SavedStatusResponse{Saved: saved}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
