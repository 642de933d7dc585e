package matchdb

import "errors"

var (
	// ErrMatchNotFound indicates no match row exists for the given id.
	ErrMatchNotFound = errors.New("match not found")
	// ErrDuplicateReport indicates the team already has a recorded score.
	ErrDuplicateReport = errors.New("team already reported a score")
	// ErrInvalidTransition indicates the requested state change is not legal
	// from the match's current state.
	ErrInvalidTransition = errors.New("invalid match state transition")
	// ErrAlreadyResolved indicates the match reached a terminal state before
	// the write; callers treat it as a no-op rather than a failure.
	ErrAlreadyResolved = errors.New("match already in a terminal state")
)
