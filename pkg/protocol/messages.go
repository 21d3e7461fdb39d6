package protocol

import (
	"encoding/json"
	"time"
)

// Kind identifies a message on the observer channel.
type Kind string

// Server-to-client event kinds. Every frame is an envelope {type, data}.
const (
	// Game state
	KindGameStateUpdate    Kind = "game_state_update"
	KindValidActionsUpdate Kind = "valid_actions_update"

	// Turn management
	KindYourTurn    Kind = "your_turn"
	KindTurnChanged Kind = "turn_changed"

	// Player actions
	KindPlayerAction Kind = "player_action"
	KindActionResult Kind = "action_result"

	// Player presence
	KindPlayerJoined      Kind = "player_joined"
	KindPlayerLeft        Kind = "player_left"
	KindPlayerReconnected Kind = "player_reconnected"

	// Game lifecycle
	KindGameStarted  Kind = "game_started"
	KindGameEnded    Kind = "game_ended"
	KindRoundChanged Kind = "round_changed"

	// System
	KindError Kind = "error"
	KindPing  Kind = "ping"
	KindPong  Kind = "pong"

	// Client-originated action submission
	KindAction Kind = "action"
)

// Message is the wire envelope for the observer channel.
type Message struct {
	Type      Kind        `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// NewMessage creates a timestamped message
func NewMessage(kind Kind, data interface{}) *Message {
	return &Message{
		Type:      kind,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Incoming is a client frame before its data has been decoded.
type Incoming struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode converts a message to JSON bytes
func Encode(msg *Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeIncoming converts JSON bytes to an incoming client frame
func DecodeIncoming(data []byte) (Incoming, error) {
	var msg Incoming
	err := json.Unmarshal(data, &msg)
	return msg, err
}

// ErrorData reports a failure to one session. Code carries the error kind
// when the failure came from the rules layer.
type ErrorData struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// PresenceData is the payload for player_joined, player_left and
// player_reconnected events.
type PresenceData struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// PlayerActionData announces another player's completed action.
type PlayerActionData struct {
	UserID     int64       `json:"user_id"`
	Username   string      `json:"username"`
	ActionKind string      `json:"action_kind"`
	Result     interface{} `json:"result"`
}

// GameStateData wraps a full state snapshot.
type GameStateData struct {
	GameState interface{} `json:"game_state"`
}

// TurnChangedData announces the turn passing between players.
type TurnChangedData struct {
	PreviousUserID    int64  `json:"previous_user_id"`
	CurrentUserID     int64  `json:"current_user_id"`
	CurrentPlayerName string `json:"current_player_name"`
}

// YourTurnData is sent only to the player whose turn is starting.
type YourTurnData struct {
	Message      string `json:"message"`
	CurrentRound int    `json:"current_round,omitempty"`
}

// RoundChangedData announces a round boundary.
type RoundChangedData struct {
	PreviousRound int `json:"previous_round"`
	CurrentRound  int `json:"current_round"`
	TotalRounds   int `json:"total_rounds"`
}

// GameStartedData announces the transition to in_progress.
type GameStartedData struct {
	GameID    string      `json:"game_id"`
	GameState interface{} `json:"game_state"`
}

// GameEndedData announces the final result.
type GameEndedData struct {
	GameID     string      `json:"game_id"`
	WinnerID   int64       `json:"winner_id"`
	WinnerName string      `json:"winner_name"`
	Rankings   interface{} `json:"rankings"`
}

// ValidActionsData carries the current player's legal action templates.
type ValidActionsData struct {
	Actions interface{} `json:"actions"`
}

// ActionRequest is the data of a client "action" frame.
type ActionRequest struct {
	ActionKind string          `json:"action_kind"`
	Payload    json.RawMessage `json:"payload"`
}

// ActionResultData acknowledges the sender's own action.
type ActionResultData struct {
	Success    bool        `json:"success"`
	ActionKind string      `json:"action_kind"`
	Result     interface{} `json:"result,omitempty"`
	Error      *ErrorData  `json:"error,omitempty"`
}
