package handlers

import (
	"net/http"
	"strconv"

	"github.com/adithyabsk/portfoliohut/internal/api/response"
	"github.com/adithyabsk/portfoliohut/internal/service"
	"github.com/adithyabsk/portfoliohut/internal/validation"
)

// LeaderboardHandler serves ranked owners.
type LeaderboardHandler struct {
	rankingService *service.RankingService
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(rankingService *service.RankingService) *LeaderboardHandler {
	return &LeaderboardHandler{rankingService: rankingService}
}

// Public handles GET requests for the public leaderboard.
//
// Endpoint: GET /api/leaderboard/public?limit=N
// Response: 200 OK with array of model.LeaderboardRow, best first
// Error: 400 Bad Request if limit is not a positive number
func (h *LeaderboardHandler) Public(w http.ResponseWriter, r *http.Request) {
	limit := service.DefaultLeaderboardSize
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			response.RespondError(w, http.StatusBadRequest, "invalid query parameters", "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	rows, err := h.rankingService.PublicLeaderboard(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, "failed to retrieve leaderboard", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, rows)
}

// Owners handles GET requests ranking an explicit set of owners, such as a
// user and the people they follow. Unknown owners are skipped.
//
// Endpoint: GET /api/leaderboard?owner=<uuid>&owner=<uuid>
// Response: 200 OK with array of model.LeaderboardRow, best first
// Error: 400 Bad Request if no owner is given or an owner is not a UUID
func (h *LeaderboardHandler) Owners(w http.ResponseWriter, r *http.Request) {
	owners := r.URL.Query()["owner"]
	if len(owners) == 0 {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameters", "at least one owner is required")
		return
	}
	if err := validation.ValidateUUIDs(owners); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid UUID format", err.Error())
		return
	}

	rows, err := h.rankingService.Leaderboard(r.Context(), owners)
	if err != nil {
		respondServiceError(w, r, "failed to retrieve leaderboard", err)
		return
	}

	response.RespondJSON(w, http.StatusOK, rows)
}
