package domain

import "slices"

// Status represents the lifecycle stage of a room
type Status string

const (
	StatusLobby    Status = "LOBBY"    // Waiting for players to join and ready up
	StatusVoting   Status = "VOTING"   // Policies dealt, players voting
	StatusResult   Status = "RESULT"   // Winning policy applied, waiting for host
	StatusFinished Status = "FINISHED" // Final turn played, ranking available
)

var validTransitions = map[Status][]Status{
	StatusLobby:  {StatusVoting},
	StatusVoting: {StatusResult},
	StatusResult: {StatusVoting, StatusFinished},
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if a transition from s to target is valid
func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(validTransitions[s], target)
}

// IsInProgress reports whether turns are being played.
func (s Status) IsInProgress() bool {
	return s == StatusVoting || s == StatusResult
}
