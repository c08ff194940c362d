package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusLobby, StatusVoting, true},
		{StatusLobby, StatusResult, false},
		{StatusVoting, StatusResult, true},
		{StatusVoting, StatusVoting, false},
		{StatusVoting, StatusFinished, false},
		{StatusResult, StatusVoting, true},
		{StatusResult, StatusFinished, true},
		{StatusFinished, StatusLobby, false},
		{StatusFinished, StatusVoting, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_IsInProgress(t *testing.T) {
	assert.False(t, StatusLobby.IsInProgress())
	assert.True(t, StatusVoting.IsInProgress())
	assert.True(t, StatusResult.IsInProgress())
	assert.False(t, StatusFinished.IsInProgress())
}
