package userdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// UserDBImpl is the bun-backed Repository implementation.
type UserDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*UserDBImpl)(nil)

// GetOrCreateUser fetches a record, inserting the default one if the player
// has never been seen. Concurrent first-sight calls are safe: the insert is
// ON CONFLICT DO NOTHING followed by a re-read.
func (db *UserDBImpl) GetOrCreateUser(ctx context.Context, userID sharedtypes.UserID) (*User, error) {
	user, err := db.GetUser(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	fresh := &User{
		ID:       userID,
		Settings: DefaultSettings(),
		Season:   map[string]int{},
	}
	if _, err := db.DB.NewInsert().Model(fresh).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create user %d: %w", userID, err)
	}

	return db.GetUser(ctx, userID)
}

// GetUser retrieves a user record by id.
func (db *UserDBImpl) GetUser(ctx context.Context, userID sharedtypes.UserID) (*User, error) {
	user := &User{}
	err := db.DB.NewSelect().Model(user).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user %d: %w", userID, err)
	}
	return user, nil
}

// UpdateSettings replaces the settings object.
func (db *UserDBImpl) UpdateSettings(ctx context.Context, userID sharedtypes.UserID, settings Settings) error {
	result, err := db.DB.NewUpdate().
		Model((*User)(nil)).
		Set("settings = ?", settings).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update settings for user %d: %w", userID, err)
	}
	return requireRows(result)
}

// LinkRoblox stores the external account id.
func (db *UserDBImpl) LinkRoblox(ctx context.Context, userID sharedtypes.UserID, robloxID int64) error {
	result, err := db.DB.NewUpdate().
		Model((*User)(nil)).
		Set("roblox_id = ?", robloxID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to link roblox account for user %d: %w", userID, err)
	}
	return requireRows(result)
}

// SetBlacklisted flips the blacklist flag.
func (db *UserDBImpl) SetBlacklisted(ctx context.Context, userID sharedtypes.UserID, blacklisted bool) error {
	result, err := db.DB.NewUpdate().
		Model((*User)(nil)).
		Set("blacklisted = ?", blacklisted).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set blacklist flag for user %d: %w", userID, err)
	}
	return requireRows(result)
}

// ApplyRatingChanges applies every player's delta from one match. Rows are
// locked FOR UPDATE so concurrent resolutions touching the same player
// serialize; trophies floor at zero. The executor is expected to be a
// transaction so the writes land together with the caller's.
func (db *UserDBImpl) ApplyRatingChanges(ctx context.Context, idb bun.IDB, changes []RatingChange) error {
	for _, change := range changes {
		user := &User{}
		err := idb.NewSelect().
			Model(user).
			Where("id = ?", change.UserID).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("applying rating change: %w (user %d)", ErrUserNotFound, change.UserID)
			}
			return fmt.Errorf("failed to lock user %d: %w", change.UserID, err)
		}

		trophies := user.Trophies + change.Delta
		if trophies < 0 {
			trophies = 0
		}

		season := user.Season
		if season == nil {
			season = map[string]int{}
		}
		season[SeasonPlayed]++
		if change.Won {
			season[SeasonWins]++
			season[SeasonTrophiesEarned] += int(change.Delta)
		} else {
			season[SeasonLosses]++
		}

		_, err = idb.NewUpdate().
			Model((*User)(nil)).
			Set("trophies = ?", trophies).
			Set("season = ?", season).
			Set("inactive_for = 0").
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", change.UserID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to apply rating change for user %d: %w", change.UserID, err)
		}
	}
	return nil
}

// ResetSeason zeroes every player's season counters.
func (db *UserDBImpl) ResetSeason(ctx context.Context) error {
	_, err := db.DB.NewUpdate().
		Model((*User)(nil)).
		Set("season = ?", map[string]int{}).
		Set("updated_at = ?", time.Now().UTC()).
		Where("TRUE").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset season counters: %w", err)
	}
	return nil
}

func requireRows(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
