package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"hanyang/internal/ai"
	"hanyang/internal/auth"
	"hanyang/internal/game"
	"hanyang/pkg/logger"
)

// GameHandler exposes the game engine over REST.
type GameHandler struct {
	engine        *game.Engine
	actionTimeout time.Duration
	logger        *logger.ColoredLogger
}

// NewGameHandler creates a new game API handler.
func NewGameHandler(engine *game.Engine, actionTimeout time.Duration) *GameHandler {
	return &GameHandler{
		engine:        engine,
		actionTimeout: actionTimeout,
		logger:        logger.HTTPLogger,
	}
}

// RegisterRoutes registers the game API routes on the authenticated
// /api subrouter.
func (h *GameHandler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/games/solo", h.handleCreateSolo).Methods(http.MethodPost)
	api.HandleFunc("/ai/personalities", h.handleAIPersonalities).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", h.handleGetGame).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id}/game", h.handleGetGameByRoom).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/actions", h.handleSubmitAction).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/valid-actions", h.handleValidActions).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/ai-turn", h.handleAITurn).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/auto-play", h.handleAutoPlay).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/result", h.handleResult).Methods(http.MethodGet)

	h.logger.Info("Game API routes registered")
}

// CreateSoloRequest is the body of POST /api/games/solo.
type CreateSoloRequest struct {
	NumAIOpponents int    `json:"num_ai_opponents"`
	AIDifficulty   string `json:"ai_difficulty"`
}

func (h *GameHandler) handleCreateSolo(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	req := CreateSoloRequest{NumAIOpponents: 1}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeGameError(w, game.Errorf(game.KindMalformed, "invalid request body: %v", err))
		return
	}

	g, err := h.engine.CreateSolo(r.Context(), identity.UserID, identity.Username,
		req.NumAIOpponents, game.ParseAIDifficulty(req.AIDifficulty))
	if err != nil {
		h.writeGameError(w, err)
		return
	}

	players := make([]map[string]interface{}, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, map[string]interface{}{
			"user_id":  p.UserID,
			"username": p.Username,
			"is_ai":    p.IsAI,
		})
	}

	h.writeJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"game_id":    g.ID,
		"message":    fmt.Sprintf("Solo game created with %d AI opponent(s)", req.NumAIOpponents),
		"players":    players,
		"game_state": g.Snapshot(),
	})
}

func (h *GameHandler) handleAIPersonalities(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"personalities": ai.Personalities(),
	})
}

func (h *GameHandler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.engine.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeGameError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, snapshot)
}

// handleGetGameByRoom resolves the game attached to a lobby room, for
// clients that only know their room id.
func (h *GameHandler) handleGetGameByRoom(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.engine.GetByRoom(r.Context(), mux.Vars(r)["room_id"])
	if err != nil {
		h.writeGameError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, snapshot)
}

func (h *GameHandler) handleSubmitAction(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	gameID := mux.Vars(r)["id"]

	var req struct {
		ActionKind string          `json:"action_kind"`
		Payload    json.RawMessage `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeGameError(w, game.Errorf(game.KindMalformed, "invalid request body: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.actionTimeout)
	defer cancel()

	action := game.Action{Kind: game.ActionKind(req.ActionKind), Payload: req.Payload}
	result, snapshot, err := h.engine.Submit(ctx, gameID, identity.UserID, action)
	if err != nil {
		h.writeGameError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"action_result": result,
		"new_state":     snapshot,
	})
}

func (h *GameHandler) handleValidActions(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	actions, err := h.engine.ValidActionsFor(r.Context(), mux.Vars(r)["id"], identity.UserID)
	if err != nil {
		h.writeGameError(w, err)
		return
	}

	response := map[string]interface{}{"valid_actions": actions}
	// The turn holder always has at least end_turn, so an empty list
	// means the caller is waiting for their turn.
	if len(actions) == 0 {
		response["message"] = "Not your turn"
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

func (h *GameHandler) handleAITurn(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.FromContext(r.Context()); !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.actionTimeout)
	defer cancel()

	result, err := h.engine.RunAITurn(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.writeGameError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, result)
}

func (h *GameHandler) handleAutoPlay(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	maxTurns := 10
	if raw := r.URL.Query().Get("max_turns"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeGameError(w, game.Errorf(game.KindMalformed, "max_turns must be a positive integer, got %q", raw))
			return
		}
		maxTurns = n
	}

	result, err := h.engine.AutoPlay(r.Context(), mux.Vars(r)["id"], identity.UserID, maxTurns)
	if err != nil {
		h.writeGameError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, result)
}

func (h *GameHandler) handleResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Result(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeGameError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, result)
}

// statusForKind maps a rules-layer error kind to its HTTP status.
func statusForKind(kind game.ErrorKind) int {
	switch kind {
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindNotYourTurn, game.KindNotAParticipant:
		return http.StatusForbidden
	case game.KindIllegalState, game.KindConflict:
		return http.StatusConflict
	case game.KindPreconditionFailed, game.KindMalformed:
		return http.StatusBadRequest
	case game.KindTimedOut:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeGameError answers a rules or engine failure with its kind and
// the kind-specific status code.
func (h *GameHandler) writeGameError(w http.ResponseWriter, err error) {
	kind := game.KindOf(err)
	status := statusForKind(kind)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed: %v", err)
	}
	h.writeJSONResponse(w, status, map[string]interface{}{
		"error_kind": kind,
		"message":    err.Error(),
	})
}

func (h *GameHandler) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response: %v", err)
	}
}

func (h *GameHandler) writeErrorResponse(w http.ResponseWriter, status int, message string) {
	h.writeJSONResponse(w, status, map[string]interface{}{
		"error":     message,
		"status":    status,
		"timestamp": time.Now(),
	})
}
