package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"citycouncil/internal/domain"
	"citycouncil/internal/petition"
	"citycouncil/internal/store"
)

const maxRoomCodeAttempts = 10

// errUnchanged lets an update function report a successful no-op so the
// service skips publishing.
var errUnchanged = errors.New("room unchanged")

// ServiceDeps are the collaborators of a Service
type ServiceDeps struct {
	Store          store.RoomStore
	Catalog        domain.Catalog
	Approver       petition.Approver
	Publisher      Publisher
	Rand           domain.Rand
	Settings       domain.Settings
	RoomCodeLength int
	Logger         *slog.Logger

	// Optional, for tests
	Now         func() time.Time
	NewPlayerID func() string
	NewRoomCode func() string
}

// Service runs player actions against rooms.
//
// Every mutation goes through store.RoomStore.Update, which serializes
// changes to one room and discards the working copy on error. Resolve and
// AdvanceTurn check the expected status inside that same update, so a
// retried request fails with domain.ErrInvalidStatus instead of running
// twice.
//
// Resolve with no votes fails with domain.ErrNoVotes. With some votes it
// proceeds and players who did not vote abstain. A rejected petition does
// not use up the player's petition.
type Service struct {
	store     store.RoomStore
	catalog   domain.Catalog
	approver  petition.Approver
	publisher Publisher
	rng       domain.Rand
	settings  domain.Settings
	logger    *slog.Logger

	now         func() time.Time
	newPlayerID func() string
	newRoomCode func() string
}

// NewService creates a Service
func NewService(deps ServiceDeps) *Service {
	s := &Service{
		store:       deps.Store,
		catalog:     deps.Catalog,
		approver:    deps.Approver,
		publisher:   deps.Publisher,
		rng:         deps.Rand,
		settings:    deps.Settings,
		logger:      deps.Logger,
		now:         deps.Now,
		newPlayerID: deps.NewPlayerID,
		newRoomCode: deps.NewRoomCode,
	}
	if s.approver == nil {
		s.approver = petition.NewLengthApprover(petition.DefaultMinLength)
	}
	if s.rng == nil {
		s.rng = NewTimeSeededRand()
	}
	if s.settings == (domain.Settings{}) {
		s.settings = domain.DefaultSettings()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newPlayerID == nil {
		s.newPlayerID = func() string { return uuid.New().String() }
	}
	if s.newRoomCode == nil {
		length := deps.RoomCodeLength
		s.newRoomCode = func() string { return GenerateRoomCode(length) }
	}
	return s
}

// CreateRoomResult is returned by CreateRoom
type CreateRoomResult struct {
	RoomID   string        `json:"roomId"`
	PlayerID string        `json:"playerId"`
	Status   domain.Status `json:"status"`
}

// CreateRoom opens a lobby with hostName as host
func (s *Service) CreateRoom(ctx context.Context, hostName string) (*CreateRoomResult, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, domain.ErrEmptyName
	}
	ideologyID, err := domain.PickIdeology(s.catalog, s.rng)
	if err != nil {
		return nil, err
	}

	now := s.now()
	host := domain.NewPlayer(s.newPlayerID(), hostName, ideologyID, now)

	for attempt := 0; attempt < maxRoomCodeAttempts; attempt++ {
		room := domain.NewRoom(s.newRoomCode(), host.Clone(), s.settings, now)
		room.Touch(now)

		err := s.store.Create(ctx, room)
		if errors.Is(err, domain.ErrRoomExists) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Info("room created", "roomId", room.ID, "hostId", host.ID)
		s.publish(domain.EventRoomCreated, room, host.ID)
		return &CreateRoomResult{RoomID: room.ID, PlayerID: host.ID, Status: room.Status}, nil
	}

	return nil, errors.New("failed to generate unique room code")
}

// JoinResult is returned by JoinRoom
type JoinResult struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// JoinRoom adds a player named displayName to the lobby
func (s *Service) JoinRoom(ctx context.Context, roomID, displayName string) (*JoinResult, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, domain.ErrEmptyName
	}
	ideologyID, err := domain.PickIdeology(s.catalog, s.rng)
	if err != nil {
		return nil, err
	}
	player := domain.NewPlayer(s.newPlayerID(), displayName, ideologyID, s.now())

	room, err := s.update(ctx, roomID, func(r *domain.Room) error {
		return r.AddPlayer(player.Clone())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("player joined", "roomId", roomID, "playerId", player.ID, "players", len(room.Players))
	s.publish(domain.EventPlayerJoined, room, player.ID)
	return &JoinResult{RoomID: roomID, PlayerID: player.ID}, nil
}

// LeaveRoom removes playerID from the room. Leaving twice is harmless.
func (s *Service) LeaveRoom(ctx context.Context, roomID, playerID string) error {
	room, err := s.update(ctx, roomID, func(r *domain.Room) error {
		if !r.RemovePlayer(playerID) {
			return errUnchanged
		}
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("player left", "roomId", roomID, "playerId", playerID)
	s.publish(domain.EventPlayerLeft, room, playerID)
	return nil
}

// ToggleReady flips the player's ready flag and returns the new value
func (s *Service) ToggleReady(ctx context.Context, roomID, playerID string) (bool, error) {
	var ready bool
	room, err := s.update(ctx, roomID, func(r *domain.Room) error {
		var err error
		ready, err = r.ToggleReady(playerID)
		return err
	})
	if err != nil {
		return false, err
	}

	s.publish(domain.EventReadyChanged, room, playerID)
	return ready, nil
}

// TurnState describes the table after a start or an advance
type TurnState struct {
	Status           domain.Status      `json:"status"`
	Turn             int                `json:"turn"`
	CurrentPolicyIDs []string           `json:"currentPolicyIds"`
	GameResult       *domain.GameResult `json:"gameResult,omitempty"`
}

// StartGame deals the first turn. Only the host may start, and only with a
// full room of ready players.
func (s *Service) StartGame(ctx context.Context, roomID, requesterID string) (*TurnState, error) {
	room, err := s.update(ctx, roomID, func(r *domain.Room) error {
		return r.Start(requesterID, s.catalog.PolicyIDs(), s.rng)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("game started", "roomId", roomID, "dealt", room.CurrentPolicyIDs)
	s.publish(domain.EventGameStarted, room, requesterID)
	return turnState(room), nil
}

// VoteResult is returned by CastVote
type VoteResult struct {
	PolicyID  string `json:"policyId"`
	VoteCount int    `json:"voteCount"`
	AllVoted  bool   `json:"allVoted"`
}

// CastVote records a vote. Voting again replaces the earlier vote.
func (s *Service) CastVote(ctx context.Context, roomID, playerID, policyID string) (*VoteResult, error) {
	room, err := s.update(ctx, roomID, func(r *domain.Room) error {
		return r.CastVote(playerID, policyID)
	})
	if err != nil {
		return nil, err
	}

	s.publish(domain.EventVoteCast, room, playerID)
	return &VoteResult{
		PolicyID:  policyID,
		VoteCount: len(room.Votes),
		AllVoted:  room.AllVoted(),
	}, nil
}

// ResolveResult is returned by Resolve
type ResolveResult struct {
	Status      domain.Status      `json:"status"`
	LastResult  *domain.TurnResult `json:"lastResult"`
	CityParams  domain.CityParams  `json:"cityParams"`
	IsCollapsed bool               `json:"isCollapsed"`
}

// Resolve tallies the turn's votes and applies the winning policy
func (s *Service) Resolve(ctx context.Context, roomID, requesterID string) (*ResolveResult, error) {
	var result *domain.TurnResult
	room, err := s.update(ctx, roomID, func(r *domain.Room) error {
		var err error
		result, err = r.Resolve(requesterID, s.catalog, s.rng)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("turn resolved",
		"roomId", roomID,
		"turn", result.Turn,
		"policyId", result.PassedPolicyID,
		"tieBroken", result.TieBroken,
	)
	s.publish(domain.EventTurnResolved, room, requesterID)
	return &ResolveResult{
		Status:      room.Status,
		LastResult:  result,
		CityParams:  room.CityParams,
		IsCollapsed: room.IsCollapsed,
	}, nil
}

// AdvanceTurn deals the next turn, or finishes the game after the last one
func (s *Service) AdvanceTurn(ctx context.Context, roomID, requesterID string) (*TurnState, error) {
	room, err := s.update(ctx, roomID, func(r *domain.Room) error {
		return r.AdvanceTurn(requesterID, s.catalog, s.rng)
	})
	if err != nil {
		return nil, err
	}

	if room.Status == domain.StatusFinished {
		s.logger.Info("game finished", "roomId", roomID, "summary", room.GameResult.CitySummary)
		s.publish(domain.EventGameFinished, room, requesterID)
	} else {
		s.logger.Info("turn advanced", "roomId", roomID, "turn", room.Turn)
		s.publish(domain.EventTurnAdvanced, room, requesterID)
	}
	return turnState(room), nil
}

// PetitionResult is returned by SubmitPetition
type PetitionResult struct {
	Approved bool   `json:"approved"`
	PolicyID string `json:"policyId,omitempty"`
	Message  string `json:"message"`
}

// SubmitPetition reviews text and, if approved, puts it on top of the deck.
// The review runs outside the room lock; eligibility is checked again when
// the petition is committed.
func (s *Service) SubmitPetition(ctx context.Context, roomID, playerID, text string) (*PetitionResult, error) {
	snapshot, err := s.store.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := snapshot.CanPetition(playerID, text); err != nil {
		return nil, err
	}

	verdict, err := s.approver.Review(ctx, text)
	if err != nil {
		return nil, err
	}
	if !verdict.Approved {
		s.logger.Info("petition rejected", "roomId", roomID, "playerId", playerID)
		return &PetitionResult{Approved: false, Message: verdict.Message}, nil
	}

	var policyID string
	room, err := s.update(ctx, roomID, func(r *domain.Room) error {
		var err error
		policyID, err = r.SubmitPetition(playerID, text, verdict)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("petition approved", "roomId", roomID, "playerId", playerID, "policyId", policyID)
	s.publish(domain.EventPetitionApproved, room, playerID)
	return &PetitionResult{Approved: true, PolicyID: policyID, Message: verdict.Message}, nil
}

// GetRoomView returns the latest committed state of the room as seen by
// viewerID
func (s *Service) GetRoomView(ctx context.Context, roomID, viewerID string) (domain.RoomView, error) {
	room, err := s.store.Get(ctx, roomID)
	if err != nil {
		return domain.RoomView{}, err
	}
	return room.View(viewerID, s.catalog), nil
}

// ListRooms returns up to limit rooms, newest first. The limit is clamped
// to store.MaxListLimit.
func (s *Service) ListRooms(ctx context.Context, limit int) ([]domain.RoomSummary, error) {
	rooms, err := s.store.List(ctx, store.ListLimit(limit))
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, room.Summary())
	}
	return summaries, nil
}

// update runs fn through the store and stamps the committed room
func (s *Service) update(ctx context.Context, roomID string, fn store.UpdateFunc) (*domain.Room, error) {
	return s.store.Update(ctx, roomID, func(r *domain.Room) error {
		if err := fn(r); err != nil {
			return err
		}
		r.Touch(s.now())
		return nil
	})
}

func (s *Service) publish(eventType domain.EventType, room *domain.Room, playerID string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(domain.NewEvent(eventType, room, playerID))
}

func turnState(room *domain.Room) *TurnState {
	return &TurnState{
		Status:           room.Status,
		Turn:             room.Turn,
		CurrentPolicyIDs: room.CurrentPolicyIDs,
		GameResult:       room.GameResult,
	}
}
