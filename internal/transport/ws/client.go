package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"citycouncil/internal/app"
	"citycouncil/internal/config"
	"citycouncil/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256

	// Upper bound for a single action against the room
	actionTimeout = 5 * time.Second
)

// Client represents a WebSocket client connection
type Client struct {
	conn     *websocket.Conn
	service  *app.Service
	session  *app.Session
	roomID   string
	playerID string
	limiter  *rate.Limiter
	send     chan []byte
	done     chan struct{}
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// NewClient creates a new WebSocket client
// The client is not attached to a session until Run.
func NewClient(conn *websocket.Conn, service *app.Service, roomID, playerID string, limits config.RateLimitConfig, logger *slog.Logger) *Client {
	limit := rate.Limit(limits.RequestsPerSecond)
	if limits.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &Client{
		conn:     conn,
		service:  service,
		roomID:   roomID,
		playerID: playerID,
		limiter:  rate.NewLimiter(limit, max(limits.Burst, 1)),
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger.With("roomId", roomID, "playerId", playerID),
	}
}

// GetPlayerID returns the player ID for this client, empty for spectators
func (c *Client) GetPlayerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// Send implements app.ClientConnection interface
func (c *Client) Send(message interface{}) error {
	if update, ok := message.(*app.RoomUpdate); ok {
		message = NewServerMessage(MsgRoomUpdate, update)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped")
		return nil
	}
}

// Close implements app.ClientConnection interface
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps. session is the room session
// the client is registered with.
func (c *Client) Run(session *app.Session) {
	c.session = session
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.session.UnregisterClient(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("", ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	if msg.Type == MsgPing {
		c.Send(NewServerMessage(MsgPong, nil))
		return
	}
	playerID := c.GetPlayerID()
	if playerID == "" {
		c.sendError(msg.Type, ErrCodeSpectator, "Spectators cannot act in the room")
		return
	}
	if !c.limiter.Allow() {
		c.sendError(msg.Type, ErrCodeRateLimited, "Too many messages, slow down")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	var (
		result interface{}
		err    error
	)
	switch msg.Type {
	case MsgToggleReady:
		var ready bool
		ready, err = c.service.ToggleReady(ctx, c.roomID, playerID)
		result = &ReadyPayload{IsReady: ready}
	case MsgStartGame:
		result, err = c.service.StartGame(ctx, c.roomID, playerID)
	case MsgCastVote:
		var p CastVotePayload
		if !c.decodePayload(msg, &p) {
			return
		}
		result, err = c.service.CastVote(ctx, c.roomID, playerID, p.PolicyID)
	case MsgResolveTurn:
		result, err = c.service.Resolve(ctx, c.roomID, playerID)
	case MsgAdvanceTurn:
		result, err = c.service.AdvanceTurn(ctx, c.roomID, playerID)
	case MsgSubmitPetition:
		var p SubmitPetitionPayload
		if !c.decodePayload(msg, &p) {
			return
		}
		result, err = c.service.SubmitPetition(ctx, c.roomID, playerID, p.Text)
	case MsgLeaveRoom:
		err = c.service.LeaveRoom(ctx, c.roomID, playerID)
	default:
		c.sendError(msg.Type, ErrCodeInvalidMessage, "Unknown message type")
		return
	}

	if err != nil {
		kind := domain.KindOf(err)
		message := err.Error()
		if kind == domain.KindInternal {
			c.logger.Error("action failed", "action", msg.Type, "error", err)
			message = "Internal server error"
		}
		c.sendError(msg.Type, string(kind), message)
		return
	}

	reply := NewServerMessage(MsgActionResult, result)
	reply.Action = msg.Type
	c.Send(reply)

	if msg.Type == MsgLeaveRoom {
		c.mu.Lock()
		c.playerID = ""
		c.mu.Unlock()
	}
}

func (c *Client) decodePayload(msg ClientMessage, v interface{}) bool {
	if len(msg.Payload) == 0 || json.Unmarshal(msg.Payload, v) != nil {
		c.sendError(msg.Type, ErrCodeInvalidMessage, "Invalid payload")
		return false
	}
	return true
}

// sendError sends an error message to the client
func (c *Client) sendError(action MessageType, code, message string) {
	msg := NewServerMessage(MsgError, &ErrorPayload{
		Code:    code,
		Message: message,
	})
	msg.Action = action
	c.Send(msg)
}
