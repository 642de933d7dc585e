package matchdomain

import (
	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// RatedPlayer pairs a user with the rating they held when the match formed.
type RatedPlayer struct {
	UserID sharedtypes.UserID
	Rating sharedtypes.Rating
}

// RatingCalculator turns a finished match into per-player rating changes.
// Implementations must return a symmetric delta: winners gain exactly what
// losers lose, before the zero floor is applied at persistence time.
type RatingCalculator interface {
	Changes(winners, losers []RatedPlayer) []userdb.RatingChange
}

// GapCalculator scales a base gain down as the rating gap between the winning
// and losing side grows, clamped to [MinGain, MaxGain]. A favourite beating an
// underdog earns less than an upset.
type GapCalculator struct {
	BaseGain   int
	GapDivisor int
	MinGain    int
	MaxGain    int
}

func (c GapCalculator) Changes(winners, losers []RatedPlayer) []userdb.RatingChange {
	gap := average(winners) - average(losers)
	delta := c.BaseGain - gap/c.GapDivisor
	if delta < c.MinGain {
		delta = c.MinGain
	}
	if delta > c.MaxGain {
		delta = c.MaxGain
	}

	changes := make([]userdb.RatingChange, 0, len(winners)+len(losers))
	for _, p := range winners {
		changes = append(changes, userdb.RatingChange{UserID: p.UserID, Delta: sharedtypes.Rating(delta), Won: true})
	}
	for _, p := range losers {
		changes = append(changes, userdb.RatingChange{UserID: p.UserID, Delta: sharedtypes.Rating(-delta), Won: false})
	}
	return changes
}

func average(players []RatedPlayer) int {
	if len(players) == 0 {
		return 0
	}
	sum := 0
	for _, p := range players {
		sum += int(p.Rating)
	}
	return sum / len(players)
}
