package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adithyabsk/portfoliohut/internal/api/request"
	"github.com/adithyabsk/portfoliohut/internal/api/response"
	"github.com/adithyabsk/portfoliohut/internal/service"
	"github.com/adithyabsk/portfoliohut/internal/validation"
)

// ProfileHandler handles HTTP requests for profile endpoints.
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// CreateProfile handles POST requests to create a new profile.
//
// Endpoint: POST /api/profile
// Request Body: CreateProfileRequest (username, displayName, visibility)
// Response: 201 Created with model.Profile
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 409 Conflict if the username is taken
// Error: 500 Internal Server Error if creation fails
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateProfileRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateProfile(req); err != nil {
		respondServiceError(w, r, "failed to create profile", err)
		return
	}

	profile, err := h.profileService.CreateProfile(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, "failed to create profile", err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, profile)
}

// GetProfile handles GET requests for a single profile.
//
// Endpoint: GET /api/profile/{uuid}
// Response: 200 OK with model.Profile
// Error: 404 Not Found if the profile does not exist
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.GetProfile(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, r, "failed to retrieve profile", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, profile)
}
