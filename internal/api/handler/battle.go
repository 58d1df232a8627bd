package handler

import (
	"net/http"

	"github.com/mcoot/pirateclash/internal/api/middleware"
	"github.com/mcoot/pirateclash/internal/api/request"
	"github.com/mcoot/pirateclash/internal/api/response"
	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/services/battle"
	"github.com/mcoot/pirateclash/internal/services/profile"
	"github.com/mcoot/pirateclash/internal/stream"
)

// BattleHandler handles battle endpoints and the battle event stream
type BattleHandler struct {
	controller     *battle.Controller
	profileService *profile.Service
	hubs           *stream.HubManager
}

// NewBattleHandler creates a new battle handler
func NewBattleHandler(controller *battle.Controller, profileService *profile.Service, hubs *stream.HubManager) *BattleHandler {
	return &BattleHandler{
		controller:     controller,
		profileService: profileService,
		hubs:           hubs,
	}
}

func writeState(w http.ResponseWriter, state *model.BattleState, err error) {
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.BattleStateFromModel(state))
}

// Get handles GET /api/v1/battle
func (h *BattleHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.controller.GetState(r.Context(), middleware.PlayerID(r.Context()))
	writeState(w, state, err)
}

// Select handles POST /api/v1/battle/select. The player's profile is created
// first so the finished match has somewhere to be recorded.
func (h *BattleHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req request.SelectCharacterRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.CharacterID == "" {
		WriteError(w, NewInvalidRequestError("character_id is required"))
		return
	}

	id := middleware.PlayerID(r.Context())
	if _, err := h.profileService.GetOrCreatePlayer(r.Context(), id, ""); err != nil {
		WriteError(w, err)
		return
	}

	state, err := h.controller.SelectCharacter(r.Context(), id, model.CharacterID(req.CharacterID))
	writeState(w, state, err)
}

// Move handles POST /api/v1/battle/move
func (h *BattleHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req request.MoveRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	moveType, err := model.ParseMoveType(req.MoveType)
	if err != nil {
		WriteError(w, err)
		return
	}

	state, err := h.controller.PlayerMove(r.Context(), middleware.PlayerID(r.Context()), moveType)
	writeState(w, state, err)
}

// EndRound handles POST /api/v1/battle/end-round
func (h *BattleHandler) EndRound(w http.ResponseWriter, r *http.Request) {
	state, err := h.controller.EndRound(r.Context(), middleware.PlayerID(r.Context()))
	writeState(w, state, err)
}

// PlayAgain handles POST /api/v1/battle/play-again
func (h *BattleHandler) PlayAgain(w http.ResponseWriter, r *http.Request) {
	state, err := h.controller.PlayAgain(r.Context(), middleware.PlayerID(r.Context()))
	writeState(w, state, err)
}

// BackToMenu handles POST /api/v1/battle/menu
func (h *BattleHandler) BackToMenu(w http.ResponseWriter, r *http.Request) {
	state, err := h.controller.BackToMenu(r.Context(), middleware.PlayerID(r.Context()))
	writeState(w, state, err)
}

// Strategies handles GET /api/v1/battle/strategies
func (h *BattleHandler) Strategies(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.BotStrategies{Strategies: h.controller.Strategies()})
}

// SetStrategy handles POST /api/v1/battle/strategy
func (h *BattleHandler) SetStrategy(w http.ResponseWriter, r *http.Request) {
	var req request.SetStrategyRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	if err := h.controller.SetStrategy(r.Context(), middleware.PlayerID(r.Context()), req.Strategy); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// Events handles GET /api/v1/battle/events (server-sent events)
func (h *BattleHandler) Events(w http.ResponseWriter, r *http.Request) {
	h.hubs.ServeSSE(w, r, middleware.PlayerID(r.Context()))
}

// WebSocket handles GET /api/v1/battle/ws
func (h *BattleHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	h.hubs.ServeWS(w, r, middleware.PlayerID(r.Context()))
}
