package domain

import "time"

// Player represents a member of a room
type Player struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	IsHost         bool      `json:"isHost"`
	IsReady        bool      `json:"isReady"`
	IsPetitionUsed bool      `json:"isPetitionUsed"`
	IdeologyID     string    `json:"ideologyId"`
	CurrentVote    string    `json:"currentVote,omitempty"`
	JoinedAt       time.Time `json:"joinedAt"`
}

// NewPlayer creates a new player holding the given ideology
func NewPlayer(id, name, ideologyID string, joinedAt time.Time) *Player {
	return &Player{
		ID:         id,
		Name:       name,
		IdeologyID: ideologyID,
		JoinedAt:   joinedAt,
	}
}

// HasVoted returns true if the player has a vote on the table this turn
func (p *Player) HasVoted() bool {
	return p.CurrentVote != ""
}

// Clone returns a copy of p
func (p *Player) Clone() *Player {
	c := *p
	return &c
}

// PlayerInfo is a safe view of player data. Ideology and current vote are
// only filled in for the player the view is rendered for.
type PlayerInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	IsHost         bool   `json:"isHost"`
	IsReady        bool   `json:"isReady"`
	IsPetitionUsed bool   `json:"isPetitionUsed"`
	HasVoted       bool   `json:"hasVoted"`
	IdeologyID     string `json:"ideologyId,omitempty"`
	CurrentVote    string `json:"currentVote,omitempty"`
}

// ToInfo converts a Player to PlayerInfo (without ideology or vote)
func (p *Player) ToInfo() PlayerInfo {
	return PlayerInfo{
		ID:             p.ID,
		Name:           p.Name,
		IsHost:         p.IsHost,
		IsReady:        p.IsReady,
		IsPetitionUsed: p.IsPetitionUsed,
		HasVoted:       p.HasVoted(),
	}
}

// ToSelfInfo converts a Player to PlayerInfo for the player themselves
func (p *Player) ToSelfInfo() PlayerInfo {
	info := p.ToInfo()
	info.IdeologyID = p.IdeologyID
	info.CurrentVote = p.CurrentVote
	return info
}
