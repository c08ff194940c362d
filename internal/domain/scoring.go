package domain

import (
	"math"
	"slices"
)

// UnknownIdeologyName labels a player whose ideology is not in the catalog
const UnknownIdeologyName = "Unknown"

// BalancedCitySummary is used when no single statistic leads
const BalancedCitySummary = "The city grew into a balanced place where no single value dominates."

var citySummaries = map[Param]string{
	ParamEconomy:     "The city prospered as an economic powerhouse.",
	ParamWelfare:     "The city became a caring place with a strong safety net.",
	ParamEducation:   "The city made its name as a temple of learning.",
	ParamSecurity:    "The city became an impregnable fortress.",
	ParamHumanRights: "The city became a sanctuary of freedom and human rights.",
	ParamEnvironment: "The city turned into a green utopia.",
}

// RankingEntry is one player's line in the final ranking
type RankingEntry struct {
	Rank         int    `json:"rank"`
	PlayerID     string `json:"playerId"`
	PlayerName   string `json:"playerName"`
	Score        int    `json:"score"`
	IdeologyID   string `json:"ideologyId"`
	IdeologyName string `json:"ideologyName"`
}

// GameResult is the terminal outcome of a room
type GameResult struct {
	CitySummary string         `json:"citySummary"`
	FinalParams CityParams     `json:"finalParams"`
	Rankings    []RankingEntry `json:"rankings"`
}

func (g *GameResult) clone() *GameResult {
	c := *g
	c.Rankings = slices.Clone(g.Rankings)
	return &c
}

// BuildGameResult scores every player against the final city and ranks them
// from best to worst. Equal scores keep the order of players, so the player
// who joined first ranks higher. A player whose ideology is no longer in the
// catalog scores 0.
func BuildGameResult(players []*Player, params CityParams, cat Catalog) *GameResult {
	type scored struct {
		entry RankingEntry
		raw   float64
	}

	rows := make([]scored, 0, len(players))
	for _, p := range players {
		entry := RankingEntry{
			PlayerID:     p.ID,
			PlayerName:   p.Name,
			IdeologyID:   p.IdeologyID,
			IdeologyName: UnknownIdeologyName,
		}
		var raw float64
		if ideology, ok := cat.Ideology(p.IdeologyID); ok {
			raw = ideology.Score(params)
			entry.IdeologyName = ideology.Name
		}
		entry.Score = RoundScore(raw)
		rows = append(rows, scored{raw: raw, entry: entry})
	}

	slices.SortStableFunc(rows, func(a, b scored) int {
		switch {
		case a.raw > b.raw:
			return -1
		case a.raw < b.raw:
			return 1
		}
		return 0
	})

	rankings := make([]RankingEntry, len(rows))
	for i, row := range rows {
		row.entry.Rank = i + 1
		rankings[i] = row.entry
	}

	return &GameResult{
		CitySummary: CitySummary(params),
		FinalParams: params,
		Rankings:    rankings,
	}
}

// RoundScore rounds a raw score for display, with halves going up
// (-12.5 becomes -12, 12.5 becomes 13)
func RoundScore(raw float64) int {
	return int(math.Floor(raw + 0.5))
}

// CitySummary describes the city by its strictly highest statistic
func CitySummary(params CityParams) string {
	var top Param
	best, ties := -1, 0
	for _, p := range Params {
		v := params.Get(p)
		switch {
		case v > best:
			top, best, ties = p, v, 1
		case v == best:
			ties++
		}
	}
	if ties != 1 {
		return BalancedCitySummary
	}
	return citySummaries[top]
}
