package app

import (
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	"citycouncil/internal/domain"
)

const (
	// DefaultRoomCodeLength is the default length for room codes
	DefaultRoomCodeLength = 6

	// DefaultSessionIdleTimeout is how long a session with no clients is kept
	DefaultSessionIdleTimeout = 2 * time.Hour

	cleanupInterval = 10 * time.Minute
)

// RoomCodeChars are characters used for room codes (no ambiguous chars)
const RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Publisher receives every committed room change
type Publisher interface {
	Publish(event *domain.RoomEvent)
}

// Hub tracks the live sessions of rooms that have subscribers. Room state
// itself lives in the store; closing a session never touches it.
type Hub struct {
	sessions    map[string]*Session
	mu          sync.RWMutex
	catalog     domain.Catalog
	idleTimeout time.Duration
	logger      *slog.Logger
	done        chan struct{}
	closeOnce   sync.Once
}

// NewHub creates a new hub and starts its cleanup loop
func NewHub(cat domain.Catalog, idleTimeout time.Duration, logger *slog.Logger) *Hub {
	if idleTimeout <= 0 {
		idleTimeout = DefaultSessionIdleTimeout
	}
	hub := &Hub{
		sessions:    make(map[string]*Session),
		catalog:     cat,
		idleTimeout: idleTimeout,
		logger:      logger,
		done:        make(chan struct{}),
	}

	go hub.cleanupLoop()

	return hub
}

// Session returns the session for roomID, creating it if needed
func (h *Hub) Session(roomID string) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	if session, ok := h.sessions[roomID]; ok {
		return session
	}
	session := NewSession(roomID, h.catalog, h.logger)
	h.sessions[roomID] = session
	h.logger.Debug("session opened", "roomId", roomID)
	return session
}

// Attach registers client with the session for roomID, creating the session
// if needed. Registration happens under the hub lock, so the idle cleanup
// cannot close the session in between; a session closed earlier is replaced.
// It reports false once the hub is closed.
func (h *Hub) Attach(roomID string, client ClientConnection) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return nil, false
	default:
	}

	if session, ok := h.sessions[roomID]; ok && session.RegisterClient(client) {
		return session, true
	}
	session := NewSession(roomID, h.catalog, h.logger)
	session.RegisterClient(client)
	h.sessions[roomID] = session
	h.logger.Debug("session opened", "roomId", roomID)
	return session, true
}

// Publish implements Publisher. Rooms without a session have nobody to
// notify and the event is dropped.
func (h *Hub) Publish(event *domain.RoomEvent) {
	h.mu.RLock()
	session, ok := h.sessions[event.RoomID]
	h.mu.RUnlock()

	if ok {
		session.Publish(event)
	}
}

// SessionCount returns the number of open sessions
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// ClientCount returns the number of connected clients across all sessions
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, session := range h.sessions {
		total += session.ClientCount()
	}
	return total
}

// Close shuts down the hub and all sessions
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()

		for _, session := range h.sessions {
			session.Close()
		}
		h.sessions = make(map[string]*Session)
	})
}

// cleanupLoop periodically closes idle sessions
func (h *Hub) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.cleanupIdleSessions(time.Now())
		}
	}
}

// cleanupIdleSessions closes sessions that have had no clients for too long
func (h *Hub) cleanupIdleSessions(now time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	closed := 0
	for roomID, session := range h.sessions {
		since, idle := session.IdleSince()
		if idle && now.Sub(since) > h.idleTimeout {
			session.Close()
			delete(h.sessions, roomID)
			closed++
			h.logger.Info("idle session closed", "roomId", roomID)
		}
	}
	return closed
}

// GenerateRoomCode returns a random room code of the given length
func GenerateRoomCode(length int) string {
	if length <= 0 {
		length = DefaultRoomCodeLength
	}
	b := make([]byte, length)
	rand.Read(b)

	code := make([]byte, length)
	for i := range code {
		code[i] = RoomCodeChars[int(b[i])%len(RoomCodeChars)]
	}

	return string(code)
}
