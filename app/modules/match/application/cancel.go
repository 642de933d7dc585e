package matchservice

import (
	"context"
	"fmt"
	"time"

	matchdomain "github.com/circuit-league/matchmaker/app/modules/match/domain"
	matchevents "github.com/circuit-league/matchmaker/app/modules/match/domain/events"
	matchdb "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/repositories"
	"github.com/circuit-league/matchmaker/app/shared/attr"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// Cancel administratively cancels a non-terminal match. Players are freed for
// queueing again but are not re-enqueued; no rating changes are applied.
func (s *MatchService) Cancel(ctx context.Context, matchID sharedtypes.MatchID, reason string) (matchevents.CancelledPayloadV1, error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.Cancel")
	defer span.End()

	if reason == "" {
		reason = matchevents.CancelReasonManual
	}

	match, err := s.repo.Cancel(ctx, matchID, reason)
	if err != nil {
		return matchevents.CancelledPayloadV1{}, fmt.Errorf("Cancel: %w", err)
	}
	s.metrics.RecordStateTransition(match.Region, string(matchdomain.StateCancelled))
	s.tracker.ClearMatch(match.Players())

	s.logger.InfoContext(ctx, "Match cancelled",
		attr.ExtractCorrelationID(ctx),
		attr.MatchID("match_id", matchID),
		attr.Region("region", match.Region),
		attr.String("reason", reason),
	)

	payload := matchevents.CancelledPayloadV1{
		MatchID: matchID,
		Region:  match.Region,
		Reason:  reason,
		Players: match.Players(),
	}
	s.publish(ctx, matchevents.CancelledV1, payload)
	return payload, nil
}

// ListActiveMatches returns the non-terminal matches, newest first.
func (s *MatchService) ListActiveMatches(ctx context.Context, region sharedtypes.Region) ([]matchdb.Match, error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.ListActiveMatches")
	defer span.End()

	matches, err := s.repo.ListActive(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("ListActiveMatches: %w", err)
	}
	return matches, nil
}

// RunDeadlineSweeper cancels awaiting_score matches whose report deadline
// passed, until the context ends.
func (s *MatchService) RunDeadlineSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepOverdue(ctx, time.Now().UTC())
		}
	}
}

func (s *MatchService) sweepOverdue(ctx context.Context, now time.Time) {
	overdue, err := s.repo.ListOverdue(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list overdue matches", attr.Error(err))
		return
	}
	for _, match := range overdue {
		if _, err := s.Cancel(ctx, match.ID, matchevents.CancelReasonDeadline); err != nil {
			s.logger.ErrorContext(ctx, "Failed to cancel overdue match",
				attr.MatchID("match_id", match.ID),
				attr.Error(err),
			)
		}
	}
}
