package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Settings holds the fixed rules of a room
type Settings struct {
	Capacity int `json:"capacity"`
	MaxTurns int `json:"maxTurns"`
	DealSize int `json:"dealSize"`
}

// DefaultSettings returns the default room settings
func DefaultSettings() Settings {
	return Settings{
		Capacity: 4,
		MaxTurns: 10,
		DealSize: 3,
	}
}

// Room is one isolated play session.
//
// Every method validates before it mutates: a method that returns an error
// leaves the room exactly as it found it.
type Room struct {
	ID               string            `json:"id"`
	HostID           string            `json:"hostId"`
	Status           Status            `json:"status"`
	Turn             int               `json:"turn"`
	MaxTurns         int               `json:"maxTurns"`
	Settings         Settings          `json:"settings"`
	CityParams       CityParams        `json:"cityParams"`
	IsCollapsed      bool              `json:"isCollapsed"`
	DeckIDs          []string          `json:"deckIds"`
	CurrentPolicyIDs []string          `json:"currentPolicyIds"`
	Votes            map[string]string `json:"votes"`
	PassedPolicyIDs  []string          `json:"passedPolicyIds"`
	Petitions        map[string]Policy `json:"petitions"`
	LastResult       *TurnResult       `json:"lastResult,omitempty"`
	GameResult       *GameResult       `json:"gameResult,omitempty"`
	Players          []*Player         `json:"players"`
	Revision         int64             `json:"revision"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// NewRoom creates a room in the lobby with host as its only member
func NewRoom(id string, host *Player, settings Settings, now time.Time) *Room {
	host.IsHost = true
	return &Room{
		ID:               id,
		HostID:           host.ID,
		Status:           StatusLobby,
		Turn:             1,
		MaxTurns:         settings.MaxTurns,
		Settings:         settings,
		CityParams:       NewCityParams(),
		DeckIDs:          []string{},
		CurrentPolicyIDs: []string{},
		Votes:            make(map[string]string),
		PassedPolicyIDs:  []string{},
		Petitions:        make(map[string]Policy),
		Players:          []*Player{host},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Clone returns a deep copy of r
func (r *Room) Clone() *Room {
	c := *r
	c.DeckIDs = slices.Clone(r.DeckIDs)
	c.CurrentPolicyIDs = slices.Clone(r.CurrentPolicyIDs)
	c.PassedPolicyIDs = slices.Clone(r.PassedPolicyIDs)
	c.Votes = maps.Clone(r.Votes)
	if c.Votes == nil {
		c.Votes = make(map[string]string)
	}
	c.Petitions = make(map[string]Policy, len(r.Petitions))
	for id, p := range r.Petitions {
		p.Effects = p.Effects.Clone()
		c.Petitions[id] = p
	}
	if r.LastResult != nil {
		c.LastResult = r.LastResult.clone()
	}
	if r.GameResult != nil {
		c.GameResult = r.GameResult.clone()
	}
	c.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		c.Players[i] = p.Clone()
	}
	return &c
}

// GetPlayer returns a player by ID
func (r *Room) GetPlayer(playerID string) (*Player, error) {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p, nil
		}
	}
	return nil, ErrPlayerNotFound
}

// Host returns the host player, if still present
func (r *Room) Host() (*Player, bool) {
	p, err := r.GetPlayer(r.HostID)
	return p, err == nil
}

// IsHost checks if the given player is the host
func (r *Room) IsHost(playerID string) bool {
	return playerID != "" && r.HostID == playerID
}

// IsFull returns true when the room has reached its capacity
func (r *Room) IsFull() bool {
	return len(r.Players) >= r.Settings.Capacity
}

// AllReady returns true if every member has readied up
func (r *Room) AllReady() bool {
	for _, p := range r.Players {
		if !p.IsReady {
			return false
		}
	}
	return len(r.Players) > 0
}

// AllVoted returns true if every member has a vote on the table
func (r *Room) AllVoted() bool {
	for _, p := range r.Players {
		if _, ok := r.Votes[p.ID]; !ok {
			return false
		}
	}
	return len(r.Players) > 0
}

// AddPlayer adds a new member to the lobby
func (r *Room) AddPlayer(p *Player) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if r.Status != StatusLobby {
		return ErrGameAlreadyStarted
	}
	if r.IsFull() {
		return ErrRoomFull
	}
	if _, err := r.GetPlayer(p.ID); err == nil {
		return ErrPlayerExists
	}

	p.IsHost = false
	p.IsReady = false
	r.Players = append(r.Players, p)
	return nil
}

// RemovePlayer removes a member and any vote they have on the table.
// Removing an absent player is a no-op; the return value reports whether
// anything changed.
func (r *Room) RemovePlayer(playerID string) bool {
	i := slices.IndexFunc(r.Players, func(p *Player) bool { return p.ID == playerID })
	if i < 0 {
		return false
	}
	r.Players = slices.Delete(r.Players, i, i+1)
	delete(r.Votes, playerID)
	return true
}

// ToggleReady flips a member's ready flag and returns the new value
func (r *Room) ToggleReady(playerID string) (bool, error) {
	if r.Status != StatusLobby {
		return false, ErrInvalidStatus
	}
	p, err := r.GetPlayer(playerID)
	if err != nil {
		return false, err
	}
	p.IsReady = !p.IsReady
	return p.IsReady, nil
}

// Start deals the first hand from a freshly shuffled deck of policyIDs
func (r *Room) Start(requesterID string, policyIDs []string, rng Rand) error {
	if !r.IsHost(requesterID) {
		return ErrNotHost
	}
	if r.Status != StatusLobby {
		return ErrInvalidStatus
	}
	if len(r.Players) != r.Settings.Capacity {
		return ErrNotEnoughPlayers
	}
	if !r.AllReady() {
		return ErrPlayersNotReady
	}

	deck := ShuffledDeck(policyIDs, rng)
	dealt, rest, err := Deal(deck, r.Settings.DealSize)
	if err != nil {
		return err
	}

	r.DeckIDs = rest
	r.CurrentPolicyIDs = dealt
	r.Turn = 1
	return r.transition(StatusVoting)
}

// CastVote records playerID's vote, replacing any earlier vote this turn
func (r *Room) CastVote(playerID, policyID string) error {
	if r.Status != StatusVoting {
		return ErrInvalidStatus
	}
	p, err := r.GetPlayer(playerID)
	if err != nil {
		return err
	}
	if !slices.Contains(r.CurrentPolicyIDs, policyID) {
		return ErrPolicyNotDealt
	}

	r.Votes[playerID] = policyID
	p.CurrentVote = policyID
	return nil
}

// AdvanceTurn moves from RESULT to the next turn, or to FINISHED after the
// final turn. cat supplies the replenishment deck and the ideologies used
// for scoring.
func (r *Room) AdvanceTurn(requesterID string, cat Catalog, rng Rand) error {
	if !r.IsHost(requesterID) {
		return ErrNotHost
	}
	if r.Status != StatusResult {
		return ErrInvalidStatus
	}

	next := r.Turn + 1
	if next > r.MaxTurns {
		r.Turn = next
		r.GameResult = BuildGameResult(r.Players, r.CityParams, cat)
		r.CurrentPolicyIDs = []string{}
		return r.transition(StatusFinished)
	}

	deck := Replenish(r.DeckIDs, cat.PolicyIDs(), r.Settings.DealSize, rng)
	dealt, rest, err := Deal(deck, r.Settings.DealSize)
	if err != nil {
		return err
	}

	r.Turn = next
	r.DeckIDs = rest
	r.CurrentPolicyIDs = dealt
	return r.transition(StatusVoting)
}

// CanPetition checks whether playerID may submit text as a petition right now
func (r *Room) CanPetition(playerID, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyPetition
	}
	p, err := r.GetPlayer(playerID)
	if err != nil {
		return err
	}
	if p.IsPetitionUsed {
		return ErrPetitionUsed
	}
	if !r.Status.IsInProgress() {
		return ErrInvalidStatus
	}
	return nil
}

// PetitionVerdict is the outcome of running a petition through an approver
type PetitionVerdict struct {
	Approved bool    `json:"approved"`
	Message  string  `json:"message"`
	Effects  Effects `json:"-"`
}

// SubmitPetition applies an approver verdict. An approved petition becomes a
// room-local policy placed on top of the deck and uses up the player's
// petition; a rejected one changes nothing. The new policy ID is returned
// when approved.
func (r *Room) SubmitPetition(playerID, text string, verdict PetitionVerdict) (string, error) {
	if err := r.CanPetition(playerID, text); err != nil {
		return "", err
	}
	if !verdict.Approved {
		return "", nil
	}

	p, _ := r.GetPlayer(playerID)
	id := r.nextPetitionID()
	text = strings.TrimSpace(text)
	if r.Petitions == nil {
		r.Petitions = make(map[string]Policy)
	}
	r.Petitions[id] = Policy{
		ID:          id,
		Category:    PetitionCategory,
		Title:       text,
		Description: fmt.Sprintf("Citizens' petition filed by %s", p.Name),
		NewsFlash:   fmt.Sprintf("BREAKING: council adopts citizens' petition %q", truncate(text, 60)),
		Effects:     verdict.Effects.Clone(),
	}
	p.IsPetitionUsed = true
	r.DeckIDs = InjectFront(r.DeckIDs, id)
	return id, nil
}

// LookupPolicy finds id among the room's petitions first, then in cat
func (r *Room) LookupPolicy(id string, cat Catalog) (Policy, error) {
	if p, ok := r.Petitions[id]; ok {
		return p, nil
	}
	if p, ok := cat.Policy(id); ok {
		return p, nil
	}
	return Policy{}, ErrPolicyNotFound
}

// Touch stamps a change about to be committed
func (r *Room) Touch(now time.Time) {
	r.Revision++
	r.UpdatedAt = now
}

func (r *Room) transition(to Status) error {
	if !r.Status.CanTransitionTo(to) {
		return ErrInvalidTransition
	}
	r.Status = to
	return nil
}

func (r *Room) clearVotes() {
	r.Votes = make(map[string]string)
	for _, p := range r.Players {
		p.CurrentVote = ""
	}
}

func (r *Room) nextPetitionID() string {
	n := len(r.Petitions) + 1
	for {
		id := fmt.Sprintf("petition_%03d", n)
		if _, taken := r.Petitions[id]; !taken {
			return id
		}
		n++
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
