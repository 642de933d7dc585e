package matchdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	matchdomain "github.com/circuit-league/matchmaker/app/modules/match/domain"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// MatchDBImpl is the bun-backed Repository implementation.
type MatchDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*MatchDBImpl)(nil)

// ScoreKey is the jsonb key a team's score is stored under.
func ScoreKey(team sharedtypes.TeamNumber) string {
	return strconv.Itoa(int(team))
}

// CreateMatch inserts a formed match and fills in its generated id.
func (db *MatchDBImpl) CreateMatch(ctx context.Context, match *Match) error {
	if match.State == "" {
		match.State = string(matchdomain.StateFormed)
	}
	now := time.Now().UTC()
	match.CreatedAt = now
	match.UpdatedAt = now
	if _, err := db.DB.NewInsert().Model(match).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

// GetMatch retrieves a match by id.
func (db *MatchDBImpl) GetMatch(ctx context.Context, matchID sharedtypes.MatchID) (*Match, error) {
	match := &Match{}
	err := db.DB.NewSelect().Model(match).Where("id = ?", matchID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to query match %d: %w", matchID, err)
	}
	return match, nil
}

// SetThread records notification ids and moves formed -> awaiting_score.
func (db *MatchDBImpl) SetThread(ctx context.Context, matchID sharedtypes.MatchID, threadID, scoreMessageID string, reportDeadline time.Time) error {
	return db.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		match, err := lockMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if !matchdomain.State(match.State).CanTransition(matchdomain.StateAwaitingScore) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, match.State, matchdomain.StateAwaitingScore)
		}
		_, err = tx.NewUpdate().
			Model((*Match)(nil)).
			Set("state = ?", string(matchdomain.StateAwaitingScore)).
			Set("thread_id = ?", threadID).
			Set("score_message_id = ?", scoreMessageID).
			Set("report_deadline = ?", reportDeadline).
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", matchID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to set thread for match %d: %w", matchID, err)
		}
		return nil
	})
}

// RecordScore stores one team's score under a row lock. The bool result is
// true when this report completed the pair.
func (db *MatchDBImpl) RecordScore(ctx context.Context, matchID sharedtypes.MatchID, team sharedtypes.TeamNumber, score int) (*Match, bool, error) {
	var updated *Match
	var complete bool
	err := db.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		match, err := lockMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if matchdomain.State(match.State) != matchdomain.StateAwaitingScore {
			return fmt.Errorf("%w: match %d is %s", ErrInvalidTransition, matchID, match.State)
		}
		if match.Scores == nil {
			match.Scores = map[string]int{}
		}
		key := ScoreKey(team)
		if _, reported := match.Scores[key]; reported {
			return ErrDuplicateReport
		}
		match.Scores[key] = score
		match.UpdatedAt = time.Now().UTC()

		_, err = tx.NewUpdate().
			Model((*Match)(nil)).
			Set("scores = ?", match.Scores).
			Set("updated_at = ?", match.UpdatedAt).
			Where("id = ?", matchID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to record score for match %d: %w", matchID, err)
		}

		updated = match
		complete = len(match.Scores) == 2
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return updated, complete, nil
}

// Resolve marks the match resolved and applies rating writes in the same
// transaction. The terminal-state guard makes retries idempotent: deltas can
// never be applied twice for one match.
func (db *MatchDBImpl) Resolve(ctx context.Context, matchID sharedtypes.MatchID, applyRatings func(context.Context, bun.IDB) error) error {
	return db.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		match, err := lockMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		state := matchdomain.State(match.State)
		if state.Terminal() {
			return ErrAlreadyResolved
		}
		if !state.CanTransition(matchdomain.StateResolved) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, match.State, matchdomain.StateResolved)
		}

		_, err = tx.NewUpdate().
			Model((*Match)(nil)).
			Set("state = ?", string(matchdomain.StateResolved)).
			Set("resolved_at = ?", time.Now().UTC()).
			Set("resolution_pending = false").
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", matchID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve match %d: %w", matchID, err)
		}

		if applyRatings != nil {
			if err := applyRatings(ctx, tx); err != nil {
				return fmt.Errorf("failed to apply rating changes for match %d: %w", matchID, err)
			}
		}
		return nil
	})
}

// Cancel moves a non-terminal match to cancelled.
func (db *MatchDBImpl) Cancel(ctx context.Context, matchID sharedtypes.MatchID, reason string) (*Match, error) {
	var cancelled *Match
	err := db.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		match, err := lockMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		state := matchdomain.State(match.State)
		if state.Terminal() {
			return ErrAlreadyResolved
		}
		match.State = string(matchdomain.StateCancelled)
		match.CancelReason = reason
		match.UpdatedAt = time.Now().UTC()

		_, err = tx.NewUpdate().
			Model((*Match)(nil)).
			Set("state = ?", match.State).
			Set("cancel_reason = ?", reason).
			Set("updated_at = ?", match.UpdatedAt).
			Where("id = ?", matchID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to cancel match %d: %w", matchID, err)
		}
		cancelled = match
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// MarkResolutionPending flags the match for manual reconciliation.
func (db *MatchDBImpl) MarkResolutionPending(ctx context.Context, matchID sharedtypes.MatchID) error {
	result, err := db.DB.NewUpdate().
		Model((*Match)(nil)).
		Set("resolution_pending = true").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", matchID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark match %d for reconciliation: %w", matchID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrMatchNotFound
	}
	return nil
}

// ListActive returns formed and awaiting_score matches, newest first. A zero
// region returns every region.
func (db *MatchDBImpl) ListActive(ctx context.Context, region sharedtypes.Region) ([]Match, error) {
	var matches []Match
	query := db.DB.NewSelect().
		Model(&matches).
		Where("state IN (?)", bun.In([]string{
			string(matchdomain.StateFormed),
			string(matchdomain.StateAwaitingScore),
		})).
		Order("created_at DESC")
	if region != "" {
		query = query.Where("region = ?", region)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list active matches: %w", err)
	}
	return matches, nil
}

// ListOverdue returns awaiting_score matches past their report deadline.
func (db *MatchDBImpl) ListOverdue(ctx context.Context, now time.Time) ([]Match, error) {
	var matches []Match
	err := db.DB.NewSelect().
		Model(&matches).
		Where("state = ?", string(matchdomain.StateAwaitingScore)).
		Where("report_deadline IS NOT NULL").
		Where("report_deadline <= ?", now).
		Order("report_deadline ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue matches: %w", err)
	}
	return matches, nil
}

func lockMatch(ctx context.Context, tx bun.Tx, matchID sharedtypes.MatchID) (*Match, error) {
	match := &Match{}
	err := tx.NewSelect().
		Model(match).
		Where("id = ?", matchID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to lock match %d: %w", matchID, err)
	}
	return match, nil
}
