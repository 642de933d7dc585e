// Package queuedomain holds the queue module's aggregate: the region-scoped
// waiting pool and its entries.
package queuedomain

import (
	"time"

	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// Entry is one player's live spot in a region pool. Entries are created on
// enqueue and destroyed on cancel, match, or timeout; identity is the entry
// pointer itself, so a stale snapshot can never remove a newer entry for the
// same player.
type Entry struct {
	UserID     sharedtypes.UserID
	Region     sharedtypes.Region
	Rating     sharedtypes.Rating
	EnqueuedAt time.Time
	// Deadline is the optional maximum wait; zero means wait forever.
	Deadline time.Time
}

// Expired reports whether the entry's wait deadline has passed.
func (e *Entry) Expired(now time.Time) bool {
	return !e.Deadline.IsZero() && now.After(e.Deadline)
}
