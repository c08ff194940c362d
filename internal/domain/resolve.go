package domain

import (
	"maps"
	"slices"
)

// TurnResult records the outcome of a resolved turn
type TurnResult struct {
	Turn              int               `json:"turn"`
	PassedPolicyID    string            `json:"passedPolicyId"`
	PassedPolicyTitle string            `json:"passedPolicyTitle"`
	ActualEffects     Effects           `json:"actualEffects"`
	NewsFlash         string            `json:"newsFlash"`
	VoteDetails       map[string]string `json:"voteDetails"`
	Tally             map[string]int    `json:"tally"`
	TieBroken         bool              `json:"tieBroken"`
}

func (t *TurnResult) clone() *TurnResult {
	c := *t
	c.ActualEffects = t.ActualEffects.Clone()
	c.VoteDetails = maps.Clone(t.VoteDetails)
	c.Tally = maps.Clone(t.Tally)
	return &c
}

// CountVotes returns the number of votes each policy received
func CountVotes(votes map[string]string) map[string]int {
	tally := make(map[string]int)
	for _, policyID := range votes {
		tally[policyID]++
	}
	return tally
}

// Leaders returns the policies sharing the highest count, in ID order
func Leaders(tally map[string]int) []string {
	best := 0
	var leaders []string
	for id, n := range tally {
		switch {
		case n > best:
			best = n
			leaders = []string{id}
		case n == best && n > 0:
			leaders = append(leaders, id)
		}
	}
	slices.Sort(leaders)
	return leaders
}

// PickWinner selects the policy with the most votes. Ties are broken
// uniformly at random among the leaders. The boolean reports whether a
// tie-break was needed.
func PickWinner(votes map[string]string, rng Rand) (string, bool, error) {
	leaders := Leaders(CountVotes(votes))
	switch len(leaders) {
	case 0:
		return "", false, ErrNoVotes
	case 1:
		return leaders[0], false, nil
	default:
		return leaders[rng.Intn(len(leaders))], true, nil
	}
}

// Resolve tallies the votes on the table, applies the winning policy to the
// city and moves the room to RESULT. Members who did not vote abstain; a
// turn with no votes at all cannot be resolved.
func (r *Room) Resolve(requesterID string, cat Catalog, rng Rand) (*TurnResult, error) {
	if !r.IsHost(requesterID) {
		return nil, ErrNotHost
	}
	if r.Status != StatusVoting {
		return nil, ErrInvalidStatus
	}

	winnerID, tieBroken, err := PickWinner(r.Votes, rng)
	if err != nil {
		return nil, err
	}
	policy, err := r.LookupPolicy(winnerID, cat)
	if err != nil {
		return nil, err
	}

	result := &TurnResult{
		Turn:              r.Turn,
		PassedPolicyID:    policy.ID,
		PassedPolicyTitle: policy.Title,
		ActualEffects:     policy.Effects.Clone(),
		NewsFlash:         policy.NewsFlash,
		VoteDetails:       maps.Clone(r.Votes),
		Tally:             CountVotes(r.Votes),
		TieBroken:         tieBroken,
	}
	if result.ActualEffects == nil {
		result.ActualEffects = Effects{}
	}

	r.CityParams.Apply(policy.Effects)
	r.IsCollapsed = r.CityParams.IsCollapsed()
	r.PassedPolicyIDs = append(r.PassedPolicyIDs, policy.ID)
	r.LastResult = result
	r.clearVotes()
	if err := r.transition(StatusResult); err != nil {
		return nil, err
	}
	return result.clone(), nil
}
