package matchservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	matchevents "github.com/circuit-league/matchmaker/app/modules/match/domain/events"
	matchdb "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/repositories"
	"github.com/circuit-league/matchmaker/app/shared/attr"
	"github.com/circuit-league/matchmaker/app/shared/results"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// ReportScore records one team's score. Accepting the second report triggers
// resolution; a resolution persistence problem does not fail the report, it
// goes down the reconciliation path instead.
func (s *MatchService) ReportScore(ctx context.Context, matchID sharedtypes.MatchID, team sharedtypes.TeamNumber, score int) (ReportResult, error) {
	ctx, span := s.tracer.Start(ctx, "MatchService.ReportScore")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordOperationDuration("report_score", time.Since(start)) }()

	if !team.IsValid() {
		return s.rejectReport(ctx, matchID, team, matchevents.ReasonInvalidTeam), nil
	}

	match, complete, err := s.repo.RecordScore(ctx, matchID, team, score)
	switch {
	case errors.Is(err, matchdb.ErrMatchNotFound):
		return s.rejectReport(ctx, matchID, team, matchevents.ReasonMatchNotFound), nil
	case errors.Is(err, matchdb.ErrDuplicateReport):
		return s.rejectReport(ctx, matchID, team, matchevents.ReasonDuplicateReport), nil
	case errors.Is(err, matchdb.ErrInvalidTransition):
		return s.rejectReport(ctx, matchID, team, matchevents.ReasonNotAwaiting), nil
	case err != nil:
		return ReportResult{}, fmt.Errorf("ReportScore: %w", err)
	}

	s.metrics.RecordScoreReport(match.Region)
	s.logger.InfoContext(ctx, "Score reported",
		attr.ExtractCorrelationID(ctx),
		attr.MatchID("match_id", matchID),
		attr.Int("team", int(team)),
		attr.Int("score", score),
		attr.Bool("complete", complete),
	)

	if complete {
		if err := s.resolve(ctx, match); err != nil {
			// The report itself stood; resolution is now an operator concern.
			s.logger.ErrorContext(ctx, "Match resolution failed",
				attr.MatchID("match_id", matchID),
				attr.Error(err),
			)
		}
	}

	return results.Success[matchevents.ScoreReportedPayloadV1, matchevents.ScoreReportFailedPayloadV1](matchevents.ScoreReportedPayloadV1{
		MatchID:  matchID,
		Team:     team,
		Score:    score,
		Complete: complete,
	}), nil
}

func (s *MatchService) rejectReport(ctx context.Context, matchID sharedtypes.MatchID, team sharedtypes.TeamNumber, reason string) ReportResult {
	s.logger.InfoContext(ctx, "Score report rejected",
		attr.ExtractCorrelationID(ctx),
		attr.MatchID("match_id", matchID),
		attr.String("reason", reason),
	)
	return results.Failure[matchevents.ScoreReportedPayloadV1, matchevents.ScoreReportFailedPayloadV1](matchevents.ScoreReportFailedPayloadV1{
		MatchID: matchID,
		Team:    team,
		Reason:  reason,
	})
}
