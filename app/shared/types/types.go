package sharedtypes

import (
	"fmt"
	"time"
)

// UserID is the platform-level player identity (a Discord snowflake).
type UserID int64

func (id UserID) String() string {
	return fmt.Sprintf("%d", id)
}

// MatchID identifies a single match record.
type MatchID int64

func (id MatchID) String() string {
	return fmt.Sprintf("%d", id)
}

// Rating is the trophy count driving pairing balance. Never negative.
type Rating int

// TeamNumber identifies one of the two sides of a match.
type TeamNumber int

const (
	TeamOne TeamNumber = 1
	TeamTwo TeamNumber = 2
)

// IsValid reports whether the team number refers to a real side.
func (t TeamNumber) IsValid() bool {
	return t == TeamOne || t == TeamTwo
}

// Opponent returns the other side.
func (t TeamNumber) Opponent() TeamNumber {
	if t == TeamOne {
		return TeamTwo
	}
	return TeamOne
}

// Region is a fixed partition of the player population. Each region runs its
// own independent queue.
type Region string

const (
	RegionUSEast Region = "us_east"
	RegionUSWest Region = "us_west"
	RegionEurope Region = "europe"
)

// Regions returns every known region, in a stable order.
func Regions() []Region {
	return []Region{RegionUSEast, RegionUSWest, RegionEurope}
}

// IsValid reports whether the region is one of the closed set.
func (r Region) IsValid() bool {
	switch r {
	case RegionUSEast, RegionUSWest, RegionEurope:
		return true
	}
	return false
}

func (r Region) String() string {
	return string(r)
}

// ParseRegion converts user input into a Region.
func ParseRegion(s string) (Region, error) {
	r := Region(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown region: %q", s)
	}
	return r, nil
}

// Timestamp wraps time.Time so payloads marshal consistently across modules.
type Timestamp = time.Time
