package handler

import (
	"net/http"

	"github.com/mcoot/pirateclash/internal/api/middleware"
	"github.com/mcoot/pirateclash/internal/api/request"
	"github.com/mcoot/pirateclash/internal/api/response"
	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/services/profile"
)

// ProfileHandler handles profile and match history endpoints
type ProfileHandler struct {
	profileService *profile.Service
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *profile.Service) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// GetOrCreate handles POST /api/v1/profile
func (h *ProfileHandler) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	var req request.CreateProfileRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	p, err := h.profileService.GetOrCreatePlayer(r.Context(), middleware.PlayerID(r.Context()), req.Username)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(p))
}

// Get handles GET /api/v1/profile. Anonymous callers and players without a
// profile get null.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.profileService.GetCurrentPlayer(r.Context(), middleware.PlayerID(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}
	if p == nil {
		response.JSON(w, http.StatusOK, (*response.Profile)(nil))
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(p))
}

// UpdateUsername handles PATCH /api/v1/profile/username
func (h *ProfileHandler) UpdateUsername(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateUsernameRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	p, err := h.profileService.UpdateUsername(r.Context(), middleware.PlayerID(r.Context()), req.Username)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(p))
}

// RecentMatches handles GET /api/v1/profile/matches
func (h *ProfileHandler) RecentMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.profileService.GetRecentMatches(r.Context(), middleware.PlayerID(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchRecordsFromModel(matches))
}

// RecordMatch handles POST /api/v1/profile/matches for clients that run
// the battle themselves
func (h *ProfileHandler) RecordMatch(w http.ResponseWriter, r *http.Request) {
	var req request.RecordMatchRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	summary := model.MatchSummary{
		PlayerCharacter:   model.CharacterID(req.PlayerCharacter),
		OpponentCharacter: model.CharacterID(req.OpponentCharacter),
		PlayerWon:         req.PlayerWon,
		RoundsWon:         req.RoundsWon,
		RoundsLost:        req.RoundsLost,
		PerfectRounds:     req.PerfectRounds,
	}
	result, err := h.profileService.RecordMatchResult(r.Context(), middleware.PlayerID(r.Context()), summary)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.MatchResultFromModel(result))
}

// Leaderboard handles GET /api/v1/leaderboard
func (h *ProfileHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.profileService.GetLeaderboard(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(entries))
}
