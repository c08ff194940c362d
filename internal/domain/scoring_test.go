package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoom_FinalTurnFinishesGame(t *testing.T) {
	cat := newFakeCatalog()
	room := newVotingRoom(t, Settings{Capacity: 4, MaxTurns: 1, DealSize: 3})
	voteAll(t, room, map[string]string{"host": "policy_a", "bob": "policy_a"})
	_, err := room.Resolve("host", cat, &stubRand{})
	require.NoError(t, err)

	require.NoError(t, room.AdvanceTurn("host", cat, &stubRand{}))

	assert.Equal(t, StatusFinished, room.Status)
	assert.Equal(t, 2, room.Turn)
	assert.Empty(t, room.CurrentPolicyIDs)
	require.NotNil(t, room.GameResult)

	// economy 60, environment 50
	// growth: 60*2 - 50 = 70, green: 50*2 - 60 = 40
	want := []RankingEntry{
		{Rank: 1, PlayerID: "host", PlayerName: "Hana", Score: 70, IdeologyID: "ideology_growth", IdeologyName: "Name of ideology_growth"},
		{Rank: 2, PlayerID: "carol", PlayerName: "Carol", Score: 70, IdeologyID: "ideology_growth", IdeologyName: "Name of ideology_growth"},
		{Rank: 3, PlayerID: "bob", PlayerName: "Bob", Score: 40, IdeologyID: "ideology_green", IdeologyName: "Name of ideology_green"},
		{Rank: 4, PlayerID: "dave", PlayerName: "Dave", Score: 40, IdeologyID: "ideology_green", IdeologyName: "Name of ideology_green"},
	}
	assert.Equal(t, want, room.GameResult.Rankings)
	assert.Equal(t, room.CityParams, room.GameResult.FinalParams)
	assert.Equal(t, citySummaries[ParamEconomy], room.GameResult.CitySummary)

	_, err = room.Resolve("host", cat, &stubRand{})
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.ErrorIs(t, room.AdvanceTurn("host", cat, &stubRand{}), ErrInvalidStatus)
}

func TestBuildGameResult_SortsByRawScore(t *testing.T) {
	cat := newFakeCatalog()
	cat.addIdeology("ideology_more", Coefficients{ParamEducation: 0.018})
	cat.addIdeology("ideology_less", Coefficients{ParamEducation: 0.012})

	players := []*Player{
		NewPlayer("p1", "First", "ideology_less", testTime),
		NewPlayer("p2", "Second", "ideology_more", testTime),
	}
	params := NewCityParams()

	result := BuildGameResult(players, params, cat)

	// 0.9 and 0.6 both display as 1
	assert.Equal(t, "p2", result.Rankings[0].PlayerID)
	assert.Equal(t, "p1", result.Rankings[1].PlayerID)
	assert.Equal(t, 1, result.Rankings[0].Score)
	assert.Equal(t, 1, result.Rankings[1].Score)
}

func TestBuildGameResult_UnknownIdeologyScoresZero(t *testing.T) {
	players := []*Player{
		NewPlayer("p1", "First", "ideology_missing", testTime),
		NewPlayer("p2", "Second", "ideology_green", testTime),
	}

	result := BuildGameResult(players, NewCityParams(), newFakeCatalog())

	require.Len(t, result.Rankings, 2)
	// green: 50*2 - 50 = 50
	assert.Equal(t, "p2", result.Rankings[0].PlayerID)
	assert.Equal(t, 50, result.Rankings[0].Score)
	assert.Equal(t, RankingEntry{
		Rank:         2,
		PlayerID:     "p1",
		PlayerName:   "First",
		Score:        0,
		IdeologyID:   "ideology_missing",
		IdeologyName: UnknownIdeologyName,
	}, result.Rankings[1])
}

func TestRoom_FinishesWithRetiredIdeology(t *testing.T) {
	cat := newFakeCatalog()
	room := newVotingRoom(t, Settings{Capacity: 4, MaxTurns: 1, DealSize: 3})
	room.Players[1].IdeologyID = "ideology_retired"
	voteAll(t, room, map[string]string{"host": "policy_a"})
	_, err := room.Resolve("host", cat, &stubRand{})
	require.NoError(t, err)

	require.NoError(t, room.AdvanceTurn("host", cat, &stubRand{}))

	assert.Equal(t, StatusFinished, room.Status)
	require.NotNil(t, room.GameResult)
	last := room.GameResult.Rankings[len(room.GameResult.Rankings)-1]
	assert.Equal(t, room.Players[1].ID, last.PlayerID)
	assert.Equal(t, UnknownIdeologyName, last.IdeologyName)
}

func TestRoundScore(t *testing.T) {
	tests := []struct {
		raw  float64
		want int
	}{
		{0, 0},
		{0.4, 0},
		{0.5, 1},
		{12.5, 13},
		{-0.5, 0},
		{-12.5, -12},
		{-12.6, -13},
		{69.999, 70},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundScore(tt.raw), "raw %v", tt.raw)
	}
}

func TestCitySummary(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *CityParams)
		want   string
	}{
		{"all equal", func(c *CityParams) {}, BalancedCitySummary},
		{"environment leads", func(c *CityParams) { c.Environment = 90 }, citySummaries[ParamEnvironment]},
		{"security leads", func(c *CityParams) { c.Security = 51 }, citySummaries[ParamSecurity]},
		{"tie at the top", func(c *CityParams) { c.Welfare = 70; c.Education = 70 }, BalancedCitySummary},
		{"tie below the top", func(c *CityParams) { c.HumanRights = 80; c.Economy = 10; c.Welfare = 10 }, citySummaries[ParamHumanRights]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCityParams()
			tt.mutate(&c)
			assert.Equal(t, tt.want, CitySummary(c))
		})
	}
}
