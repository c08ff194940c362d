package domain

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

type fakeCatalog struct {
	policies    map[string]Policy
	policyIDs   []string
	ideologies  map[string]Ideology
	ideologyIDs []string
}

func newFakeCatalog() *fakeCatalog {
	c := &fakeCatalog{
		policies:   make(map[string]Policy),
		ideologies: make(map[string]Ideology),
	}
	c.addPolicy("policy_a", Effects{ParamEconomy: 10, ParamWelfare: -5})
	c.addPolicy("policy_b", Effects{ParamEnvironment: 15, ParamEconomy: -10})
	c.addPolicy("policy_c", Effects{ParamSecurity: 20, ParamHumanRights: -20})
	c.addPolicy("policy_d", Effects{ParamEducation: 10})
	c.addPolicy("policy_e", Effects{ParamEconomy: -20})
	c.addPolicy("policy_f", nil)

	c.addIdeology("ideology_growth", Coefficients{ParamEconomy: 2, ParamEnvironment: -1})
	c.addIdeology("ideology_green", Coefficients{ParamEnvironment: 2, ParamEconomy: -1})
	return c
}

func (c *fakeCatalog) addPolicy(id string, effects Effects) {
	c.policies[id] = Policy{
		ID:        id,
		Category:  "Test",
		Title:     "Title of " + id,
		NewsFlash: "News about " + id,
		Effects:   effects,
	}
	c.policyIDs = append(c.policyIDs, id)
}

func (c *fakeCatalog) addIdeology(id string, coef Coefficients) {
	c.ideologies[id] = Ideology{ID: id, Name: "Name of " + id, Coefficients: coef}
	c.ideologyIDs = append(c.ideologyIDs, id)
}

func (c *fakeCatalog) Policy(id string) (Policy, bool) {
	p, ok := c.policies[id]
	p.Effects = p.Effects.Clone()
	return p, ok
}

func (c *fakeCatalog) Ideology(id string) (Ideology, bool) {
	i, ok := c.ideologies[id]
	return i, ok
}

func (c *fakeCatalog) PolicyIDs() []string   { return slices.Clone(c.policyIDs) }
func (c *fakeCatalog) IdeologyIDs() []string { return slices.Clone(c.ideologyIDs) }

// stubRand never reorders and answers Intn from a fixed script.
type stubRand struct {
	ints []int
	next int
}

func (r *stubRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[r.next%len(r.ints)]
	r.next++
	return v % n
}

func (r *stubRand) Shuffle(int, func(i, j int)) {}

// newTestRoom returns a lobby with the host and three guests. Hosts and the
// third player hold ideology_growth, the others ideology_green.
func newTestRoom(t *testing.T, settings Settings) *Room {
	t.Helper()
	host := NewPlayer("host", "Hana", "ideology_growth", testTime)
	room := NewRoom("ROOM01", host, settings, testTime)

	guests := []*Player{
		NewPlayer("bob", "Bob", "ideology_green", testTime.Add(time.Second)),
		NewPlayer("carol", "Carol", "ideology_growth", testTime.Add(2*time.Second)),
		NewPlayer("dave", "Dave", "ideology_green", testTime.Add(3*time.Second)),
	}
	for _, g := range guests {
		if len(room.Players) == settings.Capacity {
			break
		}
		require.NoError(t, room.AddPlayer(g))
	}
	return room
}

func readyAll(t *testing.T, room *Room) {
	t.Helper()
	for _, p := range room.Players {
		if !p.IsReady {
			_, err := room.ToggleReady(p.ID)
			require.NoError(t, err)
		}
	}
}

// newVotingRoom starts a full room without shuffling, so policy_a, policy_b
// and policy_c are on the table and the rest of the catalog is in the deck.
func newVotingRoom(t *testing.T, settings Settings) *Room {
	t.Helper()
	room := newTestRoom(t, settings)
	readyAll(t, room)
	require.NoError(t, room.Start("host", newFakeCatalog().PolicyIDs(), &stubRand{}))
	return room
}

func voteAll(t *testing.T, room *Room, votes map[string]string) {
	t.Helper()
	for playerID, policyID := range votes {
		require.NoError(t, room.CastVote(playerID, policyID))
	}
}
