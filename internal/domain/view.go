package domain

import "time"

// RoomInfo is the public part of a room. The deck order and the live vote
// ledger stay hidden; LastResult reveals votes once a turn is resolved.
type RoomInfo struct {
	ID               string      `json:"id"`
	HostID           string      `json:"hostId"`
	Status           Status      `json:"status"`
	Turn             int         `json:"turn"`
	MaxTurns         int         `json:"maxTurns"`
	Capacity         int         `json:"capacity"`
	CityParams       CityParams  `json:"cityParams"`
	IsCollapsed      bool        `json:"isCollapsed"`
	DeckSize         int         `json:"deckSize"`
	CurrentPolicyIDs []string    `json:"currentPolicyIds"`
	VoteCount        int         `json:"voteCount"`
	PassedPolicyIDs  []string    `json:"passedPolicyIds"`
	LastResult       *TurnResult `json:"lastResult,omitempty"`
	GameResult       *GameResult `json:"gameResult,omitempty"`
	Revision         int64       `json:"revision"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// RoomView is the read model handed to a single viewer
type RoomView struct {
	Room    RoomInfo       `json:"room"`
	Players []PlayerInfo   `json:"players"`
	Options []PolicyOption `json:"options"`
	Me      *PlayerInfo    `json:"me,omitempty"`
}

// RoomSummary is a lobby-list entry
type RoomSummary struct {
	RoomID      string    `json:"roomId"`
	HostName    string    `json:"hostName"`
	PlayerCount int       `json:"playerCount"`
	Capacity    int       `json:"capacity"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// View renders r for viewerID. Only the viewer's own ideology and current
// vote are included; an empty or unknown viewer sees the public view.
func (r *Room) View(viewerID string, cat Catalog) RoomView {
	c := r.Clone()

	view := RoomView{
		Room: RoomInfo{
			ID:               c.ID,
			HostID:           c.HostID,
			Status:           c.Status,
			Turn:             c.Turn,
			MaxTurns:         c.MaxTurns,
			Capacity:         c.Settings.Capacity,
			CityParams:       c.CityParams,
			IsCollapsed:      c.IsCollapsed,
			DeckSize:         len(c.DeckIDs),
			CurrentPolicyIDs: c.CurrentPolicyIDs,
			VoteCount:        len(c.Votes),
			PassedPolicyIDs:  c.PassedPolicyIDs,
			LastResult:       c.LastResult,
			GameResult:       c.GameResult,
			Revision:         c.Revision,
			CreatedAt:        c.CreatedAt,
		},
		Players: make([]PlayerInfo, 0, len(c.Players)),
		Options: make([]PolicyOption, 0, len(c.CurrentPolicyIDs)),
	}

	for _, p := range c.Players {
		if p.ID == viewerID {
			self := p.ToSelfInfo()
			view.Players = append(view.Players, self)
			view.Me = &self
			continue
		}
		view.Players = append(view.Players, p.ToInfo())
	}

	for _, id := range c.CurrentPolicyIDs {
		if p, err := c.LookupPolicy(id, cat); err == nil {
			view.Options = append(view.Options, p.ToOption())
		}
	}

	return view
}

// Summary returns the lobby-list entry for r
func (r *Room) Summary() RoomSummary {
	s := RoomSummary{
		RoomID:      r.ID,
		PlayerCount: len(r.Players),
		Capacity:    r.Settings.Capacity,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
	}
	if host, ok := r.Host(); ok {
		s.HostName = host.Name
	}
	return s
}
