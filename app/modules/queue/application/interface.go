package queueservice

import (
	"context"

	queuedomain "github.com/circuit-league/matchmaker/app/modules/queue/domain"
	queueevents "github.com/circuit-league/matchmaker/app/modules/queue/domain/events"
	"github.com/circuit-league/matchmaker/app/shared/results"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// JoinResult carries a joined payload or a rejection reason.
type JoinResult = results.OperationResult[queueevents.JoinedPayloadV1, queueevents.JoinFailedPayloadV1]

// Service is the queue facade: the public entry point the command layer
// delegates to.
type Service interface {
	// Join queues a player. An empty region falls back to the player's saved
	// preference. Rejections (blacklist, already queued, bad region) come back
	// as failure payloads, not errors.
	Join(ctx context.Context, userID sharedtypes.UserID, region sharedtypes.Region) (JoinResult, error)
	// Leave removes the player's live entry if any. Removing nothing is not
	// an error.
	Leave(ctx context.Context, userID sharedtypes.UserID) (queueevents.LeftPayloadV1, error)
	// Status reports not_queued, queued (with position), or in_match.
	Status(ctx context.Context, userID sharedtypes.UserID) queueevents.StatusResponsePayloadV1
}

// PoolAccess is what the matching engine needs from the queue module: the
// per-region pools and their enqueue kick signals.
type PoolAccess interface {
	Pool(region sharedtypes.Region) *queuedomain.RegionPool
	Kick(region sharedtypes.Region) <-chan struct{}
}

// MatchTracker is how the match module keeps the facade's status answers
// current as matches form and finish.
type MatchTracker interface {
	MarkInMatch(users []sharedtypes.UserID, matchID sharedtypes.MatchID)
	ClearMatch(users []sharedtypes.UserID)
	// RequeueEntries returns players to their pool with their original
	// enqueue timestamps after a transient match-creation failure.
	RequeueEntries(ctx context.Context, entries []*queuedomain.Entry) error
}
