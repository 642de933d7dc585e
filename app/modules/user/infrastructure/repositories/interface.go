package userdb

import (
	"context"

	"github.com/uptrace/bun"

	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// Repository is the contract for user data operations.
type Repository interface {
	// GetOrCreateUser returns the user's record, creating a default one on
	// first sight.
	GetOrCreateUser(ctx context.Context, userID sharedtypes.UserID) (*User, error)
	// GetUser returns an existing record or ErrUserNotFound.
	GetUser(ctx context.Context, userID sharedtypes.UserID) (*User, error)
	// UpdateSettings replaces the player's preference object.
	UpdateSettings(ctx context.Context, userID sharedtypes.UserID, settings Settings) error
	// LinkRoblox stores the linked external account id.
	LinkRoblox(ctx context.Context, userID sharedtypes.UserID, robloxID int64) error
	// SetBlacklisted flips the blacklist flag. Records are never deleted.
	SetBlacklisted(ctx context.Context, userID sharedtypes.UserID, blacklisted bool) error
	// ApplyRatingChanges applies a match's rating deltas, season counters, and
	// inactivity resets with per-row locks. The caller supplies the executor so
	// the writes can share a transaction with the match resolution row; trophies
	// never drop below zero.
	ApplyRatingChanges(ctx context.Context, db bun.IDB, changes []RatingChange) error
	// ResetSeason clears season counters for every player.
	ResetSeason(ctx context.Context) error
}
