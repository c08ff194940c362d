package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"citycouncil/internal/domain"
)

const (
	maxBodyBytes = 16 << 10
	qrImageSize  = 256
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NameRequest is the body for room creation and joining
type NameRequest struct {
	DisplayName string `json:"displayName"`
}

// PlayerRequest is the body for actions that only need the acting player
type PlayerRequest struct {
	PlayerID string `json:"playerId"`
}

// VoteRequest is the body for voting
type VoteRequest struct {
	PlayerID string `json:"playerId"`
	PolicyID string `json:"policyId"`
}

// PetitionRequest is the body for petitions
type PetitionRequest struct {
	PlayerID string `json:"playerId"`
	Text     string `json:"text"`
}

// CreateRoomResponse is the response for room creation
type CreateRoomResponse struct {
	RoomID     string        `json:"roomId"`
	PlayerID   string        `json:"playerId"`
	Status     domain.Status `json:"status"`
	InviteLink string        `json:"inviteLink"`
}

// ReadyResponse is the response for toggling ready
type ReadyResponse struct {
	IsReady bool `json:"isReady"`
}

// LeaveResponse is the response for leaving a room
type LeaveResponse struct {
	Left bool `json:"left"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveSessions   int `json:"activeSessions"`
	ConnectedClients int `json:"connectedClients"`
}

// handleCreateRoom handles POST /api/rooms
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.service.CreateRoom(r.Context(), req.DisplayName)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, &CreateRoomResponse{
		RoomID:     result.RoomID,
		PlayerID:   result.PlayerID,
		Status:     result.Status,
		InviteLink: s.inviteLink(r, result.RoomID),
	})
}

// handleListRooms handles GET /api/rooms
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rooms, err := s.service.ListRooms(r.Context(), limit)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, rooms)
}

// handleGetRoom handles GET /api/rooms/{roomId}
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetRoomView(r.Context(), roomID(r), r.URL.Query().Get("playerId"))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, view)
}

// handleInviteQR handles GET /api/rooms/{roomId}/invite.png
func (s *Server) handleInviteQR(w http.ResponseWriter, r *http.Request) {
	id := roomID(r)
	if _, err := s.service.GetRoomView(r.Context(), id, ""); err != nil {
		s.sendDomainError(w, err)
		return
	}

	png, err := qrcode.Encode(s.inviteLink(r, id), qrcode.Medium, qrImageSize)
	if err != nil {
		s.logger.Error("failed to render invite code", "roomId", id, "error", err)
		s.sendError(w, http.StatusInternalServerError, string(domain.KindInternal), "Failed to render invite code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

// handleJoin handles POST /api/rooms/{roomId}/join
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.service.JoinRoom(r.Context(), roomID(r), req.DisplayName)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, result)
}

// handleLeave handles POST /api/rooms/{roomId}/leave
func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.service.LeaveRoom(r.Context(), roomID(r), req.PlayerID); err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, &LeaveResponse{Left: true})
}

// handleReady handles POST /api/rooms/{roomId}/ready
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if !s.decode(w, r, &req) {
		return
	}

	ready, err := s.service.ToggleReady(r.Context(), roomID(r), req.PlayerID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, &ReadyResponse{IsReady: ready})
}

// handleStart handles POST /api/rooms/{roomId}/start
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if !s.decode(w, r, &req) {
		return
	}

	state, err := s.service.StartGame(r.Context(), roomID(r), req.PlayerID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, state)
}

// handleVote handles POST /api/rooms/{roomId}/vote
func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.service.CastVote(r.Context(), roomID(r), req.PlayerID, req.PolicyID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, result)
}

// handleResolve handles POST /api/rooms/{roomId}/resolve
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.service.Resolve(r.Context(), roomID(r), req.PlayerID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, result)
}

// handleNext handles POST /api/rooms/{roomId}/next
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if !s.decode(w, r, &req) {
		return
	}

	state, err := s.service.AdvanceTurn(r.Context(), roomID(r), req.PlayerID)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, state)
}

// handlePetition handles POST /api/rooms/{roomId}/petition
func (s *Server) handlePetition(w http.ResponseWriter, r *http.Request) {
	var req PetitionRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.service.SubmitPetition(r.Context(), roomID(r), req.PlayerID, req.Text)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, result)
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{
		ActiveSessions:   s.hub.SessionCount(),
		ConnectedClients: s.hub.ClientCount(),
	})
}

func (s *Server) inviteLink(r *http.Request, id string) string {
	base := strings.TrimSuffix(s.config.Server.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/join/" + id
}

func roomID(r *http.Request) string {
	return strings.ToUpper(chi.URLParam(r, "roomId"))
}

// decode reads a JSON body into v. An empty body leaves v zeroed.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		s.sendError(w, http.StatusBadRequest, ErrCodeInvalidBody, "Request body must be valid JSON")
		return false
	}
	return true
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendDomainError maps err to its status and stable code
func (s *Server) sendDomainError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := StatusForKind(kind)
	message := err.Error()
	if kind == domain.KindInternal {
		s.logger.Error("request failed", "error", err)
		message = "Internal server error"
	}
	if kind == domain.KindBusy {
		w.Header().Set("Retry-After", "1")
	}
	s.sendError(w, status, string(kind), message)
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
