package network

import (
	"sync"

	"github.com/gorilla/websocket"

	"hanyang/pkg/config"
	"hanyang/pkg/logger"
	"hanyang/pkg/protocol"
)

// ActionFunc handles an action frame submitted over a session. The handler
// is responsible for replying to the session.
type ActionFunc func(s *Session, req protocol.ActionRequest)

// Hub tracks live observer sessions grouped by game. It is the delivery
// side of the event fan-out: the engine publishes through it, sessions
// register and deregister through it.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logger.ColoredLogger

	mu    sync.RWMutex
	rooms map[string]map[*Session]struct{}

	onAction ActionFunc
}

// NewHub creates an empty hub.
func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		cfg:    cfg,
		logger: logger.NetLogger,
		rooms:  make(map[string]map[*Session]struct{}),
	}
}

// SetActionHandler wires the handler for inbound action frames. Must be
// called before the first session registers.
func (h *Hub) SetActionHandler(fn ActionFunc) {
	h.onAction = fn
}

// Join creates a session for an upgraded connection, announces the player
// to the rest of the room and starts the pumps.
func (h *Hub) Join(conn *websocket.Conn, gameID string, userID int64, username string) *Session {
	s := newSession(h, conn, gameID, userID, username)
	h.attach(s)
	return s
}

func (h *Hub) dispatchAction(s *Session, req protocol.ActionRequest) {
	if h.onAction == nil {
		s.sendError("internal", "action handling is not available")
		return
	}
	h.onAction(s, req)
}

// attach registers a freshly created session and emits the presence event.
// A second session for the same user is announced as a reconnection.
func (h *Hub) attach(s *Session) {
	h.mu.Lock()
	room, ok := h.rooms[s.GameID]
	if !ok {
		room = make(map[*Session]struct{})
		h.rooms[s.GameID] = room
	}
	rejoining := false
	for peer := range room {
		if peer.UserID == s.UserID {
			rejoining = true
			break
		}
	}
	room[s] = struct{}{}
	h.mu.Unlock()

	kind := protocol.KindPlayerJoined
	if rejoining {
		kind = protocol.KindPlayerReconnected
	}
	h.Broadcast(s.GameID, protocol.NewMessage(kind, protocol.PresenceData{
		UserID:   s.UserID,
		Username: s.Username,
	}), s.UserID)

	h.logger.Info("Session %s joined game %s as %s (user %d)", s.ID, s.GameID, s.Username, s.UserID)
	s.start()
}

// forget removes a session. When it was the user's last session in the
// room, the rest of the room is told the player left.
func (h *Hub) forget(s *Session) {
	h.mu.Lock()
	room, ok := h.rooms[s.GameID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, present := room[s]; !present {
		h.mu.Unlock()
		return
	}
	delete(room, s)

	userGone := true
	for peer := range room {
		if peer.UserID == s.UserID {
			userGone = false
			break
		}
	}
	roomEmpty := len(room) == 0
	if roomEmpty {
		delete(h.rooms, s.GameID)
	}
	h.mu.Unlock()

	h.logger.Info("Session %s left game %s (user %d)", s.ID, s.GameID, s.UserID)

	if userGone && !roomEmpty {
		h.Broadcast(s.GameID, protocol.NewMessage(protocol.KindPlayerLeft, protocol.PresenceData{
			UserID:   s.UserID,
			Username: s.Username,
		}), s.UserID)
	}
}

// Broadcast delivers a message to every session in the game's room except
// those belonging to excludeUserID. Zero excludes nobody. Sessions that
// cannot keep up are dropped.
func (h *Hub) Broadcast(gameID string, msg *protocol.Message, excludeUserID int64) {
	data, err := protocol.Encode(msg)
	if err != nil {
		h.logger.Error("Failed to encode %s broadcast for game %s: %v", msg.Type, gameID, err)
		return
	}

	targets := h.snapshot(gameID)
	var stalled []*Session
	for _, s := range targets {
		if excludeUserID != 0 && s.UserID == excludeUserID {
			continue
		}
		if err := s.enqueue(data); err != nil {
			h.logger.Warn("Dropping session %s in game %s: %v", s.ID, gameID, err)
			stalled = append(stalled, s)
		}
	}
	for _, s := range stalled {
		s.Close()
	}
}

// Send delivers a message to every session a single user holds in the room.
// It reports whether at least one session accepted it.
func (h *Hub) Send(gameID string, userID int64, msg *protocol.Message) bool {
	data, err := protocol.Encode(msg)
	if err != nil {
		h.logger.Error("Failed to encode %s message for user %d: %v", msg.Type, userID, err)
		return false
	}

	delivered := false
	var stalled []*Session
	for _, s := range h.snapshot(gameID) {
		if s.UserID != userID {
			continue
		}
		if err := s.enqueue(data); err != nil {
			stalled = append(stalled, s)
			continue
		}
		delivered = true
	}
	for _, s := range stalled {
		s.Close()
	}
	return delivered
}

// snapshot copies the room's session set so delivery happens without
// holding the hub lock.
func (h *Hub) snapshot(gameID string) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[gameID]
	if !ok {
		return nil
	}
	out := make([]*Session, 0, len(room))
	for s := range room {
		out = append(out, s)
	}
	return out
}

// SessionCount returns the number of live sessions across all rooms.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

// RoomCount returns the number of games with at least one live session.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Shutdown closes every session. Used during server shutdown.
func (h *Hub) Shutdown() {
	for _, s := range h.snapshotAll() {
		s.Close()
	}
}

func (h *Hub) snapshotAll() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*Session
	for _, room := range h.rooms {
		for s := range room {
			out = append(out, s)
		}
	}
	return out
}
