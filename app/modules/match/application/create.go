package matchservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	matchdomain "github.com/circuit-league/matchmaker/app/modules/match/domain"
	matchevents "github.com/circuit-league/matchmaker/app/modules/match/domain/events"
	matchdb "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/repositories"
	queuedomain "github.com/circuit-league/matchmaker/app/modules/queue/domain"
	"github.com/circuit-league/matchmaker/app/shared/attr"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// ErrMatchAborted reports that a formed match could not go live. The match
// is cancelled and its players are back at their original queue positions.
var ErrMatchAborted = errors.New("match aborted before going live")

// CreateFromPairing persists and announces a match for entries the engine has
// already removed from the pool. The players are this service's
// responsibility from here on: any failure before the match is live puts them
// back at their original queue positions and returns ErrMatchAborted, so the
// caller stops pairing instead of re-forming against the same failure.
func (s *MatchService) CreateFromPairing(ctx context.Context, region sharedtypes.Region, teamOne, teamTwo []*queuedomain.Entry) error {
	ctx, span := s.tracer.Start(ctx, "MatchService.CreateFromPairing")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration("create", time.Since(start)) }()

	match := &matchdb.Match{
		Region:         region,
		State:          string(matchdomain.StateFormed),
		TeamOne:        entryIDs(teamOne),
		TeamTwo:        entryIDs(teamTwo),
		TeamOneRatings: entryRatings(teamOne),
		TeamTwoRatings: entryRatings(teamTwo),
	}
	if err := s.repo.CreateMatch(ctx, match); err != nil {
		s.requeue(ctx, teamOne, teamTwo)
		return fmt.Errorf("CreateFromPairing: %w", err)
	}
	s.metrics.RecordStateTransition(region, string(matchdomain.StateFormed))

	threadID, scoreMessageID, err := s.notifier.CreateMatchChannel(ctx, match)
	if err != nil {
		// The match never became visible to players. Cancel it and put
		// everyone back where they were.
		s.logger.WarnContext(ctx, "Match announcement failed, cancelling",
			attr.MatchID("match_id", match.ID),
			attr.Region("region", region),
			attr.Error(err),
		)
		s.cancelFormed(ctx, match, matchevents.CancelReasonNotification)
		s.requeue(ctx, teamOne, teamTwo)
		return fmt.Errorf("CreateFromPairing: %w", ErrMatchAborted)
	}

	deadline := time.Now().UTC().Add(s.scoreDeadline)
	if err := s.repo.SetThread(ctx, match.ID, threadID, scoreMessageID, deadline); err != nil {
		s.logger.ErrorContext(ctx, "Failed to arm score deadline, cancelling",
			attr.MatchID("match_id", match.ID),
			attr.Error(err),
		)
		s.cancelFormed(ctx, match, matchevents.CancelReasonNotification)
		s.requeue(ctx, teamOne, teamTwo)
		return fmt.Errorf("CreateFromPairing: %w", ErrMatchAborted)
	}
	s.metrics.RecordStateTransition(region, string(matchdomain.StateAwaitingScore))

	s.tracker.MarkInMatch(match.Players(), match.ID)

	s.logger.InfoContext(ctx, "Match formed",
		attr.ExtractCorrelationID(ctx),
		attr.MatchID("match_id", match.ID),
		attr.Region("region", region),
		attr.String("thread_id", threadID),
	)

	s.publish(ctx, matchevents.FormedV1, matchevents.FormedPayloadV1{
		MatchID:        match.ID,
		Region:         region,
		TeamOne:        match.TeamOne,
		TeamTwo:        match.TeamTwo,
		ThreadID:       threadID,
		ReportDeadline: deadline,
	})
	return nil
}

func (s *MatchService) cancelFormed(ctx context.Context, match *matchdb.Match, reason string) {
	if _, err := s.repo.Cancel(ctx, match.ID, reason); err != nil {
		s.logger.ErrorContext(ctx, "Failed to cancel match",
			attr.MatchID("match_id", match.ID),
			attr.Error(err),
		)
		return
	}
	s.metrics.RecordStateTransition(match.Region, string(matchdomain.StateCancelled))
	s.publish(ctx, matchevents.CancelledV1, matchevents.CancelledPayloadV1{
		MatchID: match.ID,
		Region:  match.Region,
		Reason:  reason,
		Players: match.Players(),
	})
}

func (s *MatchService) requeue(ctx context.Context, teams ...[]*queuedomain.Entry) {
	var entries []*queuedomain.Entry
	for _, team := range teams {
		entries = append(entries, team...)
	}
	if err := s.tracker.RequeueEntries(ctx, entries); err != nil {
		s.logger.ErrorContext(ctx, "Failed to requeue players after match failure", attr.Error(err))
	}
}

func entryIDs(entries []*queuedomain.Entry) []sharedtypes.UserID {
	ids := make([]sharedtypes.UserID, len(entries))
	for i, entry := range entries {
		ids[i] = entry.UserID
	}
	return ids
}

func entryRatings(entries []*queuedomain.Entry) []sharedtypes.Rating {
	ratings := make([]sharedtypes.Rating, len(entries))
	for i, entry := range entries {
		ratings[i] = entry.Rating
	}
	return ratings
}
