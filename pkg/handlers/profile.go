package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/auth"
	"github.com/collegematch/collegematch-engine/pkg/models"
	"github.com/collegematch/collegematch-engine/pkg/services"
)

// ProfileRequest is the body of PUT /api/profile.
type ProfileRequest struct {
	Budget              float64           `json:"budget"`
	Income              float64           `json:"income"`
	Major               string            `json:"major"`
	GPA                 float64           `json:"gpa"`
	TestScores          models.TestScores `json:"test_scores"`
	LocationPreferences []string          `json:"location_preferences"`
	Extracurriculars    []string          `json:"extracurriculars"`
}

// ProfileHandler handles student profile HTTP requests.
type ProfileHandler struct {
	profileService services.ProfileService
	logger         *zap.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profileService services.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// RegisterRoutes registers the profile handler's routes on the given mux.
func (h *ProfileHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/profile", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/profile", authMiddleware.RequireAuth(h.Save))
}

// Save handles PUT /api/profile
func (h *ProfileHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	profile := &models.Profile{
		Budget:              req.Budget,
		Income:              req.Income,
		Major:               req.Major,
		GPA:                 req.GPA,
		TestScores:          req.TestScores,
		LocationPreferences: req.LocationPreferences,
		Extracurriculars:    req.Extracurriculars,
	}

	saved, err := h.profileService.Save(r.Context(), userID, profile)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to save profile", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: saved}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	profile, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, "Failed to get profile", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: profile}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
