package ws

import (
	"encoding/json"
	"time"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgToggleReady    MessageType = "toggle_ready"
	MsgStartGame      MessageType = "start_game"
	MsgCastVote       MessageType = "cast_vote"
	MsgResolveTurn    MessageType = "resolve_turn"
	MsgAdvanceTurn    MessageType = "advance_turn"
	MsgSubmitPetition MessageType = "submit_petition"
	MsgLeaveRoom      MessageType = "leave_room"
	MsgPing           MessageType = "ping"
)

// Server → Client message types
const (
	MsgConnected    MessageType = "connected"
	MsgRoomUpdate   MessageType = "room_update"
	MsgActionResult MessageType = "action_result"
	MsgError        MessageType = "error"
	MsgPong         MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Action    MessageType `json:"action,omitempty"` // set on action_result and error replies
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// CastVotePayload is the payload for cast_vote message
type CastVotePayload struct {
	PolicyID string `json:"policyId"`
}

// SubmitPetitionPayload is the payload for submit_petition message
type SubmitPetitionPayload struct {
	Text string `json:"text"`
}

// Server message payloads

// ConnectedPayload is the payload for connected message
type ConnectedPayload struct {
	PlayerID string      `json:"playerId,omitempty"`
	RoomID   string      `json:"roomId"`
	View     interface{} `json:"view"`
}

// ReadyPayload is the result of toggle_ready
type ReadyPayload struct {
	IsReady bool `json:"isReady"`
}

// ErrorPayload is the payload for error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes that do not come from the domain
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeSpectator      = "SPECTATOR"
	ErrCodeRateLimited    = "RATE_LIMITED"
)
