package userdb

import (
	"time"

	"github.com/uptrace/bun"

	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// Season counter keys. Counters reset when a season rolls over.
const (
	SeasonPlayed         = "played"
	SeasonWins           = "wins"
	SeasonLosses         = "losses"
	SeasonTrophiesEarned = "trophies_earned"
)

// Settings is the typed form of the player's preference object.
type Settings struct {
	Region                sharedtypes.Region   `json:"region"`
	PartyRequests         bool                 `json:"party_requests"`
	PartyRequestWhitelist []sharedtypes.UserID `json:"party_request_whitelist,omitempty"`
	PartyRequestBlacklist []sharedtypes.UserID `json:"party_request_blacklist,omitempty"`
}

// DefaultSettings is what a freshly created player starts with.
func DefaultSettings() Settings {
	return Settings{
		Region:        sharedtypes.RegionUSEast,
		PartyRequests: true,
	}
}

// User is the durable per-player record.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          sharedtypes.UserID `bun:"id,pk" json:"id"`
	RobloxID    *int64             `bun:"roblox_id,nullzero" json:"roblox_id,omitempty"`
	Blacklisted bool               `bun:"blacklisted,notnull,default:false" json:"blacklisted"`
	Trophies    sharedtypes.Rating `bun:"trophies,notnull,default:0" json:"trophies"`
	InactiveFor int                `bun:"inactive_for,notnull,default:0" json:"inactive_for"`
	Bonus       int                `bun:"bonus,notnull,default:0" json:"bonus"`
	Settings    Settings           `bun:"settings,type:jsonb" json:"settings"`
	Season      map[string]int     `bun:"season,type:jsonb" json:"season"`
	CreatedAt   time.Time          `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time          `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// RatingChange is one player's share of a match resolution. The full set for
// a match is applied in a single transaction.
type RatingChange struct {
	UserID sharedtypes.UserID `json:"user_id"`
	Delta  sharedtypes.Rating `json:"delta"`
	Won    bool               `json:"won"`
}
