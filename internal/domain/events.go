package domain

import "time"

// EventType represents the type of room event
type EventType string

const (
	EventRoomCreated      EventType = "ROOM_CREATED"
	EventPlayerJoined     EventType = "PLAYER_JOINED"
	EventPlayerLeft       EventType = "PLAYER_LEFT"
	EventReadyChanged     EventType = "READY_CHANGED"
	EventGameStarted      EventType = "GAME_STARTED"
	EventVoteCast         EventType = "VOTE_CAST"
	EventTurnResolved     EventType = "TURN_RESOLVED"
	EventTurnAdvanced     EventType = "TURN_ADVANCED"
	EventGameFinished     EventType = "GAME_FINISHED"
	EventPetitionApproved EventType = "PETITION_APPROVED"
)

// RoomEvent carries a committed snapshot of a room after a change. The
// snapshot is private to the event; subscribers render it into a view for
// each recipient.
type RoomEvent struct {
	Type      EventType `json:"type"`
	RoomID    string    `json:"roomId"`
	PlayerID  string    `json:"playerId,omitempty"` // Player who caused the event
	Room      *Room     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates a new room event from a committed snapshot
func NewEvent(eventType EventType, room *Room, playerID string) *RoomEvent {
	return &RoomEvent{
		Type:      eventType,
		RoomID:    room.ID,
		PlayerID:  playerID,
		Room:      room,
		Timestamp: time.Now(),
	}
}
