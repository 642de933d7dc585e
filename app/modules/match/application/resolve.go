package matchservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/uptrace/bun"

	matchdomain "github.com/circuit-league/matchmaker/app/modules/match/domain"
	matchevents "github.com/circuit-league/matchmaker/app/modules/match/domain/events"
	matchdb "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/repositories"
	userevents "github.com/circuit-league/matchmaker/app/modules/user/domain/events"
	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
	"github.com/circuit-league/matchmaker/app/shared/attr"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// resolve finalizes a fully scored match: winner from the scores, symmetric
// rating deltas from the formation-time ratings, and one transactional write
// covering the terminal state plus every player row. The write is retried
// with backoff; exhaustion flags the match for manual reconciliation instead
// of losing the result.
func (s *MatchService) resolve(ctx context.Context, match *matchdb.Match) error {
	winner := winningTeam(match.Scores)
	changes := s.ratingChanges(match, winner)

	attempts := 0
	operation := func() error {
		attempts++
		err := s.repo.Resolve(ctx, match.ID, func(ctx context.Context, idb bun.IDB) error {
			return s.users.ApplyRatingChanges(ctx, idb, changes)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, matchdb.ErrAlreadyResolved):
			// A concurrent resolution won; their write covered the deltas.
			return nil
		case errors.Is(err, matchdb.ErrInvalidTransition), errors.Is(err, matchdb.ErrMatchNotFound):
			return backoff.Permanent(err)
		default:
			s.metrics.RecordResolutionRetry()
			return err
		}
	}

	policy := backoff.WithContext(s.newResolveBackoff(), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		s.metrics.RecordResolutionExhausted()
		if markErr := s.repo.MarkResolutionPending(ctx, match.ID); markErr != nil {
			s.logger.ErrorContext(ctx, "Failed to flag match for reconciliation",
				attr.MatchID("match_id", match.ID),
				attr.Error(markErr),
			)
		}
		s.publish(ctx, matchevents.ReconciliationRequiredV1, matchevents.ReconciliationRequiredPayloadV1{
			MatchID:  match.ID,
			Region:   match.Region,
			Scores:   match.Scores,
			Attempts: attempts,
		})
		return fmt.Errorf("resolve match %d: %w", match.ID, err)
	}

	s.metrics.RecordStateTransition(match.Region, string(matchdomain.StateResolved))
	s.metrics.RecordRatingApplied(len(changes))
	s.tracker.ClearMatch(match.Players())

	s.logger.InfoContext(ctx, "Match resolved",
		attr.MatchID("match_id", match.ID),
		attr.Region("region", match.Region),
		attr.Int("winner", int(winner)),
	)

	if s.notifier != nil {
		if err := s.notifier.PostResult(ctx, match, changes); err != nil {
			s.logger.WarnContext(ctx, "Failed to post match result",
				attr.MatchID("match_id", match.ID),
				attr.Error(err),
			)
		}
	}

	if len(changes) > 0 {
		s.publish(ctx, userevents.RatingAppliedV1, userevents.RatingAppliedPayloadV1{
			MatchID: match.ID,
			Changes: changes,
		})
	}

	eventChanges := make([]matchevents.RatingChangeV1, len(changes))
	for i, change := range changes {
		eventChanges[i] = matchevents.RatingChangeV1{UserID: change.UserID, Delta: change.Delta, Won: change.Won}
	}
	s.publish(ctx, matchevents.ResolvedV1, matchevents.ResolvedPayloadV1{
		MatchID: match.ID,
		Region:  match.Region,
		Winner:  winner,
		Scores:  match.Scores,
		Changes: eventChanges,
	})
	return nil
}

// ratingChanges computes the deltas for a decided match. A drawn match
// resolves with no rating movement.
func (s *MatchService) ratingChanges(match *matchdb.Match, winner sharedtypes.TeamNumber) []userdb.RatingChange {
	if !winner.IsValid() {
		return nil
	}
	return s.calculator.Changes(
		ratedPlayers(match, winner),
		ratedPlayers(match, winner.Opponent()),
	)
}

func ratedPlayers(match *matchdb.Match, team sharedtypes.TeamNumber) []matchdomain.RatedPlayer {
	ids := match.Team(team)
	ratings := match.TeamRatings(team)
	players := make([]matchdomain.RatedPlayer, len(ids))
	for i, id := range ids {
		rating := sharedtypes.Rating(0)
		if i < len(ratings) {
			rating = ratings[i]
		}
		players[i] = matchdomain.RatedPlayer{UserID: id, Rating: rating}
	}
	return players
}

// winningTeam returns the higher scoring team, or zero on a draw.
func winningTeam(scores map[string]int) sharedtypes.TeamNumber {
	one := scores[matchdb.ScoreKey(sharedtypes.TeamOne)]
	two := scores[matchdb.ScoreKey(sharedtypes.TeamTwo)]
	switch {
	case one > two:
		return sharedtypes.TeamOne
	case two > one:
		return sharedtypes.TeamTwo
	default:
		return 0
	}
}
