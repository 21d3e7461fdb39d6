package network

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"hanyang/pkg/protocol"
)

// Session is one observer connection bound to a game and a participant.
// A participant may hold several sessions (multiple tabs); each gets its
// own send queue and pumps.
type Session struct {
	ID       string
	GameID   string
	UserID   int64
	Username string

	ConnectedAt time.Time

	hub       *Hub
	conn      *websocket.Conn
	sendQueue chan []byte

	mu         sync.Mutex
	closed     bool
	lastActive time.Time
}

func newSession(hub *Hub, conn *websocket.Conn, gameID string, userID int64, username string) *Session {
	now := time.Now()
	return &Session{
		ID:          uuid.New().String(),
		GameID:      gameID,
		UserID:      userID,
		Username:    username,
		ConnectedAt: now,
		hub:         hub,
		conn:        conn,
		sendQueue:   make(chan []byte, hub.cfg.SendQueueSize),
		lastActive:  now,
	}
}

// start launches the read and write pumps. Called by the hub once the
// session is registered.
func (s *Session) start() {
	go s.writePump()
	go s.readPump()
}

// Send encodes and queues a message for delivery. It never blocks; a full
// queue means the client is not draining and the send is rejected.
func (s *Session) Send(msg *protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return s.enqueue(data)
}

func (s *Session) enqueue(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("session %s is closed", s.ID)
	}

	select {
	case s.sendQueue <- data:
		return nil
	default:
		return fmt.Errorf("send queue full for session %s", s.ID)
	}
}

// Close shuts the session down and removes it from the hub. Safe to call
// more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.sendQueue)
	s.mu.Unlock()

	s.conn.Close()
	s.hub.forget(s)
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// readPump consumes client frames until the connection drops. Malformed
// frames are answered with an error event; the session stays open.
func (s *Session) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(s.hub.cfg.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.hub.cfg.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(s.hub.cfg.ReadTimeout))
		s.touch()
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.hub.logger.Warn("Session %s closed unexpectedly: %v", s.ID, err)
			}
			return
		}
		s.touch()

		in, err := protocol.DecodeIncoming(data)
		if err != nil {
			s.hub.logger.Debug("Session %s sent an undecodable frame: %v", s.ID, err)
			s.sendError("malformed", "invalid message format")
			continue
		}

		s.handleFrame(in)
	}
}

func (s *Session) handleFrame(in protocol.Incoming) {
	switch in.Type {
	case protocol.KindPing:
		s.Send(protocol.NewMessage(protocol.KindPong, nil))

	case protocol.KindAction:
		var req protocol.ActionRequest
		if err := json.Unmarshal(in.Data, &req); err != nil {
			s.sendError("malformed", "invalid action payload")
			return
		}
		s.hub.dispatchAction(s, req)

	default:
		s.sendError("malformed", fmt.Sprintf("unsupported message type %q", in.Type))
	}
}

func (s *Session) sendError(code, message string) {
	s.Send(protocol.NewMessage(protocol.KindError, protocol.ErrorData{
		Code:    code,
		Message: message,
	}))
}

// writePump drains the send queue and keeps the connection alive with
// periodic pings. A write failure closes the connection, which unblocks
// the read pump and tears the session down.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.sendQueue:
			s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.hub.logger.Debug("Write to session %s failed: %v", s.ID, err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
