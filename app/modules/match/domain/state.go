// Package matchdomain holds the match lifecycle state machine and the rating
// delta calculator.
package matchdomain

// State is a match's lifecycle position. Transitions are monotonic; terminal
// states are never left.
type State string

const (
	StateFormed        State = "formed"
	StateAwaitingScore State = "awaiting_score"
	StateResolved      State = "resolved"
	StateCancelled     State = "cancelled"
)

// Terminal reports whether the state can never transition again.
func (s State) Terminal() bool {
	return s == StateResolved || s == StateCancelled
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	switch s {
	case StateFormed:
		return next == StateAwaitingScore || next == StateCancelled
	case StateAwaitingScore:
		return next == StateResolved || next == StateCancelled
	default:
		return false
	}
}
