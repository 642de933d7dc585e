package matchdomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{"formed to awaiting_score", StateFormed, StateAwaitingScore, true},
		{"formed to cancelled", StateFormed, StateCancelled, true},
		{"formed to resolved", StateFormed, StateResolved, false},
		{"awaiting_score to resolved", StateAwaitingScore, StateResolved, true},
		{"awaiting_score to cancelled", StateAwaitingScore, StateCancelled, true},
		{"awaiting_score to formed", StateAwaitingScore, StateFormed, false},
		{"resolved is terminal", StateResolved, StateCancelled, false},
		{"cancelled is terminal", StateCancelled, StateAwaitingScore, false},
		{"resolved stays resolved", StateResolved, StateResolved, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestStateTerminal(t *testing.T) {
	assert.False(t, StateFormed.Terminal())
	assert.False(t, StateAwaitingScore.Terminal())
	assert.True(t, StateResolved.Terminal())
	assert.True(t, StateCancelled.Terminal())
}
