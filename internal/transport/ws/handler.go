package ws

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"citycouncil/internal/app"
	"citycouncil/internal/config"
	"citycouncil/internal/domain"
)

// Handler handles WebSocket connections
type Handler struct {
	service  *app.Service
	hub      *app.Hub
	upgrader websocket.Upgrader
	limits   config.RateLimitConfig
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(service *app.Service, hub *app.Hub, logger *slog.Logger, limits config.RateLimitConfig) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Player ids are bearer tokens; origin is not checked
				return true
			},
		},
		limits: limits,
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests. A connection without a
// playerId, or with one that is not in the room, watches as a spectator.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomID := strings.ToUpper(r.URL.Query().Get("roomId"))
	if roomID == "" {
		http.Error(w, "roomId is required", http.StatusBadRequest)
		return
	}
	playerID := r.URL.Query().Get("playerId")

	view, err := h.service.GetRoomView(r.Context(), roomID, playerID)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load room", "roomId", roomID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if view.Me == nil {
		playerID = ""
	}

	// Upgrade connection to WebSocket
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, h.service, roomID, playerID, h.limits, h.logger)

	// Register before reading the view sent on connect, so a change committed
	// in between still reaches the client as a room update.
	session, ok := h.hub.Attach(roomID, client)
	if !ok {
		client.Close()
		return
	}

	view, err = h.service.GetRoomView(r.Context(), roomID, playerID)
	if err != nil {
		h.logger.Error("failed to load room", "roomId", roomID, "error", err)
		session.UnregisterClient(client)
		client.Close()
		return
	}

	h.logger.Info("websocket connected",
		"roomId", roomID,
		"playerId", playerID,
		"spectator", playerID == "",
	)

	client.Send(NewServerMessage(MsgConnected, &ConnectedPayload{
		PlayerID: playerID,
		RoomID:   roomID,
		View:     view,
	}))

	client.Run(session)
}
