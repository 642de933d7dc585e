package matchdb

import (
	"time"

	"github.com/uptrace/bun"

	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// Match is the persisted record of one formed match. Teams are stored as the
// exact rosters chosen by the pairing pass; scores are keyed by team number
// and filled in as reports arrive.
type Match struct {
	bun.BaseModel `bun:"table:matches,alias:m"`

	ID        sharedtypes.MatchID `bun:"id,pk,autoincrement"`
	CreatedAt time.Time           `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time           `bun:"updated_at,notnull,default:current_timestamp"`

	Region sharedtypes.Region `bun:"region,notnull"`
	State  string             `bun:"state,notnull"`

	TeamOne []sharedtypes.UserID `bun:"team_one,type:jsonb,notnull"`
	TeamTwo []sharedtypes.UserID `bun:"team_two,type:jsonb,notnull"`

	// Ratings held at formation time, index-aligned with the team slices. Kept
	// so resolution uses the gap that existed when the match was made.
	TeamOneRatings []sharedtypes.Rating `bun:"team_one_ratings,type:jsonb,notnull"`
	TeamTwoRatings []sharedtypes.Rating `bun:"team_two_ratings,type:jsonb,notnull"`

	// Scores maps a team number's string form to its reported score. Empty
	// until the first report arrives.
	Scores map[string]int `bun:"scores,type:jsonb,nullzero"`

	ThreadID       string `bun:"thread_id,nullzero"`
	ScoreMessageID string `bun:"score_message_id,nullzero"`

	ReportDeadline time.Time `bun:"report_deadline,nullzero"`
	ResolvedAt     time.Time `bun:"resolved_at,nullzero"`

	// ResolutionPending marks a match whose scores are final but whose rating
	// writes could not be committed; operators reconcile these by hand.
	ResolutionPending bool `bun:"resolution_pending,notnull,default:false"`

	CancelReason string `bun:"cancel_reason,nullzero"`
}

// Players returns every participant across both teams.
func (m *Match) Players() []sharedtypes.UserID {
	players := make([]sharedtypes.UserID, 0, len(m.TeamOne)+len(m.TeamTwo))
	players = append(players, m.TeamOne...)
	players = append(players, m.TeamTwo...)
	return players
}

// Team returns the roster for the given team number.
func (m *Match) Team(team sharedtypes.TeamNumber) []sharedtypes.UserID {
	if team == sharedtypes.TeamOne {
		return m.TeamOne
	}
	return m.TeamTwo
}

// TeamRatings returns the formation-time ratings for the given team number.
func (m *Match) TeamRatings(team sharedtypes.TeamNumber) []sharedtypes.Rating {
	if team == sharedtypes.TeamOne {
		return m.TeamOneRatings
	}
	return m.TeamTwoRatings
}
