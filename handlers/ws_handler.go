package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"hanyang/internal/auth"
	"hanyang/internal/game"
	"hanyang/internal/network"
	"hanyang/pkg/logger"
	"hanyang/pkg/protocol"
)

// Close codes sent before a rejected connection is dropped.
const (
	CloseAuthFailed       = 4001
	CloseNotAParticipant  = 4003
	closeHandshakeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the fronting proxy.
		return true
	},
}

// WSHandler upgrades observer connections and feeds action frames into
// the engine. Authentication happens after the upgrade so the client
// receives a close code instead of a bare HTTP error.
type WSHandler struct {
	hub           *network.Hub
	engine        *game.Engine
	verifier      *auth.Verifier
	actionTimeout time.Duration
	logger        *logger.ColoredLogger
}

// NewWSHandler creates the websocket handler and wires the hub's
// inbound action frames to the engine.
func NewWSHandler(hub *network.Hub, engine *game.Engine, verifier *auth.Verifier, actionTimeout time.Duration) *WSHandler {
	h := &WSHandler{
		hub:           hub,
		engine:        engine,
		verifier:      verifier,
		actionTimeout: actionTimeout,
		logger:        logger.NetLogger,
	}
	hub.SetActionHandler(h.handleSessionAction)
	return h
}

// RegisterRoutes registers the websocket endpoint.
func (h *WSHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws/games/{id}", h.handleGameSocket).Methods(http.MethodGet)
	h.logger.Info("Game WebSocket route registered")
}

func (h *WSHandler) handleGameSocket(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade connection for game %s: %v", gameID, err)
		return
	}

	identity, err := h.verifier.ValidateToken(auth.TokenFromRequest(r))
	if err != nil {
		h.logger.Warn("WebSocket auth failed for game %s: %v", gameID, err)
		h.reject(conn, CloseAuthFailed, "Authentication failed")
		return
	}

	snapshot, err := h.engine.Get(r.Context(), gameID)
	if err != nil {
		h.reject(conn, CloseNotAParticipant, "Not a player in this game")
		return
	}
	participant := false
	for _, p := range snapshot.Players {
		if p.UserID == identity.UserID {
			participant = true
			break
		}
	}
	if !participant {
		h.logger.Warn("User %d is not a player in game %s", identity.UserID, gameID)
		h.reject(conn, CloseNotAParticipant, "Not a player in this game")
		return
	}

	h.hub.Join(conn, gameID, identity.UserID, identity.Username)
}

// reject closes an upgraded connection with an application close code.
func (h *WSHandler) reject(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(closeHandshakeTimeout)
	msg := websocket.FormatCloseMessage(code, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		h.logger.Debug("Failed to send close %d: %v", code, err)
	}
	conn.Close()
}

// handleSessionAction runs one action frame through the engine and
// answers the submitting session. Broadcasts to the rest of the room
// happen inside the engine once the action commits.
func (h *WSHandler) handleSessionAction(s *network.Session, req protocol.ActionRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), h.actionTimeout)
	defer cancel()

	action := game.Action{Kind: game.ActionKind(req.ActionKind), Payload: req.Payload}
	result, _, err := h.engine.Submit(ctx, s.GameID, s.UserID, action)

	reply := protocol.ActionResultData{ActionKind: req.ActionKind}
	if err != nil {
		reply.Error = &protocol.ErrorData{
			Code:    string(game.KindOf(err)),
			Message: err.Error(),
		}
	} else {
		reply.Success = true
		reply.Result = result
	}

	if err := s.Send(protocol.NewMessage(protocol.KindActionResult, reply)); err != nil {
		h.logger.Warn("Failed to answer action on session %s: %v", s.ID, err)
	}
}
