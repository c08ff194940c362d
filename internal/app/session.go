package app

import (
	"log/slog"
	"sync"
	"time"

	"citycouncil/internal/domain"
)

const eventBufferSize = 100

// ClientConnection represents a connected client
type ClientConnection interface {
	Send(message interface{}) error
	GetPlayerID() string
	Close() error
}

// RoomUpdate is pushed to a client after every committed change. View is
// rendered for the receiving player.
type RoomUpdate struct {
	Event     domain.EventType `json:"event"`
	RoomID    string           `json:"roomId"`
	ActorID   string           `json:"actorId,omitempty"`
	View      domain.RoomView  `json:"view"`
	Timestamp time.Time        `json:"timestamp"`
}

// Session fans committed room snapshots out to the clients watching a room
type Session struct {
	roomID    string
	catalog   domain.Catalog
	clients   map[ClientConnection]struct{}
	clientsMu sync.RWMutex
	logger    *slog.Logger

	lastActive   time.Time
	lastRevision int64 // only touched by eventLoop

	events    chan *domain.RoomEvent
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession creates a session for roomID and starts its event loop
func NewSession(roomID string, cat domain.Catalog, logger *slog.Logger) *Session {
	session := &Session{
		roomID:     roomID,
		catalog:    cat,
		clients:    make(map[ClientConnection]struct{}),
		logger:     logger.With("roomId", roomID),
		lastActive: time.Now(),
		events:     make(chan *domain.RoomEvent, eventBufferSize),
		done:       make(chan struct{}),
	}

	go session.eventLoop()

	return session
}

// RoomID returns the room this session follows
func (s *Session) RoomID() string {
	return s.roomID
}

// RegisterClient adds a client to the broadcast list. It reports false, and
// leaves the client alone, once the session is closed.
func (s *Session) RegisterClient(client ClientConnection) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	select {
	case <-s.done:
		return false
	default:
	}

	s.clients[client] = struct{}{}
	s.lastActive = time.Now()
	return true
}

// UnregisterClient removes a client from the broadcast list
func (s *Session) UnregisterClient(client ClientConnection) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, client)
	s.lastActive = time.Now()
}

// ClientCount returns the number of connected clients
func (s *Session) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// IdleSince returns when the session last had a client come or go, and
// whether it currently has none.
func (s *Session) IdleSince() (time.Time, bool) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return s.lastActive, len(s.clients) == 0
}

// Publish queues event for broadcast
func (s *Session) Publish(event *domain.RoomEvent) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- event:
	default:
		s.logger.Warn("event queue full, dropping event", "type", event.Type)
	}
}

// eventLoop processes events and broadcasts to clients
func (s *Session) eventLoop() {
	for {
		select {
		case <-s.done:
			return
		case event := <-s.events:
			if event.Room != nil && event.Room.Revision <= s.lastRevision {
				s.logger.Debug("skipping stale event", "type", event.Type, "revision", event.Room.Revision)
				continue
			}
			if event.Room != nil {
				s.lastRevision = event.Room.Revision
			}
			s.broadcastEvent(event)
		}
	}
}

// broadcastEvent renders and sends a per-player view to every client
func (s *Session) broadcastEvent(event *domain.RoomEvent) {
	if event.Room == nil {
		return
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for client := range s.clients {
		update := &RoomUpdate{
			Event:     event.Type,
			RoomID:    event.RoomID,
			ActorID:   event.PlayerID,
			View:      event.Room.View(client.GetPlayerID(), s.catalog),
			Timestamp: event.Timestamp,
		}
		if err := client.Send(update); err != nil {
			s.logger.Debug("failed to send to client", "playerId", client.GetPlayerID(), "error", err)
		}
	}
}

// Close shuts down the session and disconnects its clients
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		s.clientsMu.Lock()
		for client := range s.clients {
			client.Close()
		}
		s.clients = make(map[ClientConnection]struct{})
		s.clientsMu.Unlock()
	})
}
