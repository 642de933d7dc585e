package matchdb

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// Repository is the contract for match data operations.
type Repository interface {
	// CreateMatch inserts a new formed match and fills in its id.
	CreateMatch(ctx context.Context, match *Match) error
	// GetMatch returns a match or ErrMatchNotFound.
	GetMatch(ctx context.Context, matchID sharedtypes.MatchID) (*Match, error)
	// SetThread records the notification channel ids and moves the match to
	// awaiting_score with the given report deadline.
	SetThread(ctx context.Context, matchID sharedtypes.MatchID, threadID, scoreMessageID string, reportDeadline time.Time) error
	// RecordScore stores one team's score under a row lock and returns the
	// updated match plus whether both teams have now reported. Fails with
	// ErrDuplicateReport on a second report for the same team and
	// ErrInvalidTransition when the match is not awaiting scores.
	RecordScore(ctx context.Context, matchID sharedtypes.MatchID, team sharedtypes.TeamNumber, score int) (*Match, bool, error)
	// Resolve moves the match to resolved and runs applyRatings inside the
	// same transaction, so the rating writes and the terminal state commit or
	// roll back together. A match already in a terminal state returns
	// ErrAlreadyResolved without calling applyRatings.
	Resolve(ctx context.Context, matchID sharedtypes.MatchID, applyRatings func(context.Context, bun.IDB) error) error
	// Cancel moves a non-terminal match to cancelled with a reason.
	Cancel(ctx context.Context, matchID sharedtypes.MatchID, reason string) (*Match, error)
	// MarkResolutionPending flags a match whose rating writes were abandoned
	// after retries, for manual reconciliation.
	MarkResolutionPending(ctx context.Context, matchID sharedtypes.MatchID) error
	// ListActive returns non-terminal matches, optionally filtered by region.
	ListActive(ctx context.Context, region sharedtypes.Region) ([]Match, error)
	// ListOverdue returns awaiting_score matches whose report deadline passed.
	ListOverdue(ctx context.Context, now time.Time) ([]Match, error)
}
