package matchservice

import (
	"context"

	matchevents "github.com/circuit-league/matchmaker/app/modules/match/domain/events"
	matchdb "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/repositories"
	queuedomain "github.com/circuit-league/matchmaker/app/modules/queue/domain"
	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
	"github.com/circuit-league/matchmaker/app/shared/results"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// ReportResult carries an accepted score report or a rejection reason.
type ReportResult = results.OperationResult[matchevents.ScoreReportedPayloadV1, matchevents.ScoreReportFailedPayloadV1]

// Service is the match lifecycle manager.
type Service interface {
	// CreateFromPairing persists a match for a pairing the engine removed from
	// the pool, announces it, and arms the score deadline. On a notification
	// failure the match is cancelled, the players are returned to the pool
	// with their original enqueue timestamps, and ErrMatchAborted is
	// returned.
	CreateFromPairing(ctx context.Context, region sharedtypes.Region, teamOne, teamTwo []*queuedomain.Entry) error
	// ReportScore records one team's score. The second accepted report
	// resolves the match. Bad reports (unknown match, invalid team, duplicate,
	// wrong state) come back as failure payloads, not errors.
	ReportScore(ctx context.Context, matchID sharedtypes.MatchID, team sharedtypes.TeamNumber, score int) (ReportResult, error)
	// Cancel administratively cancels a non-terminal match. No rating changes
	// are applied.
	Cancel(ctx context.Context, matchID sharedtypes.MatchID, reason string) (matchevents.CancelledPayloadV1, error)
	// ListActiveMatches returns formed and awaiting_score matches, optionally
	// filtered by region.
	ListActiveMatches(ctx context.Context, region sharedtypes.Region) ([]matchdb.Match, error)
}

// Notifier is the frontend surface matches are announced on.
type Notifier interface {
	// CreateMatchChannel spawns the match's discussion thread and score prompt,
	// returning their ids.
	CreateMatchChannel(ctx context.Context, match *matchdb.Match) (threadID, scoreMessageID string, err error)
	// PostResult announces the final scores and rating changes. Best effort;
	// the match is already resolved when this runs.
	PostResult(ctx context.Context, match *matchdb.Match, changes []userdb.RatingChange) error
}
