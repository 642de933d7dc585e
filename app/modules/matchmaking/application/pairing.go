// Package matchmaking implements the pairing engine: window selection over
// rating-sorted region pool snapshots.
package matchmaking

import (
	"sort"
	"time"

	queuedomain "github.com/circuit-league/matchmaker/app/modules/queue/domain"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// Pairing is one selected candidate window, already split into teams.
type Pairing struct {
	// Window holds the selected entries in rating order; RemoveMany takes
	// exactly these.
	Window  []*queuedomain.Entry
	TeamOne []*queuedomain.Entry
	TeamTwo []*queuedomain.Entry
	Spread  sharedtypes.Rating
}

// FindPairing scans a pool snapshot for the best feasible window of
// 2×teamSize players. Entries are sorted by rating (stable, so FIFO order
// survives among equal ratings) and a window slides across the sorted
// sequence. Feasible windows (spread ≤ maxSpread) are ranked by smallest
// spread, then by earliest average enqueue time, so the longest-waiting group
// wins ties. Returns false when no window is feasible; entries then simply
// stay queued.
func FindPairing(snapshot []*queuedomain.Entry, teamSize int, maxSpread sharedtypes.Rating) (Pairing, bool) {
	windowSize := 2 * teamSize
	if teamSize < 1 || len(snapshot) < windowSize {
		return Pairing{}, false
	}

	sorted := make([]*queuedomain.Entry, len(snapshot))
	copy(sorted, snapshot)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating < sorted[j].Rating
	})

	best := -1
	var bestSpread sharedtypes.Rating
	var bestWait time.Time
	for i := 0; i+windowSize <= len(sorted); i++ {
		spread := sorted[i+windowSize-1].Rating - sorted[i].Rating
		if spread > maxSpread {
			continue
		}
		wait := averageEnqueue(sorted[i : i+windowSize])
		if best == -1 || spread < bestSpread || (spread == bestSpread && wait.Before(bestWait)) {
			best = i
			bestSpread = spread
			bestWait = wait
		}
	}
	if best == -1 {
		return Pairing{}, false
	}

	window := make([]*queuedomain.Entry, windowSize)
	copy(window, sorted[best:best+windowSize])

	// Alternate rating-sorted entries across the teams so the rating sums
	// stay as close as the window allows.
	teamOne := make([]*queuedomain.Entry, 0, teamSize)
	teamTwo := make([]*queuedomain.Entry, 0, teamSize)
	for i, entry := range window {
		if i%2 == 0 {
			teamOne = append(teamOne, entry)
		} else {
			teamTwo = append(teamTwo, entry)
		}
	}

	return Pairing{
		Window:  window,
		TeamOne: teamOne,
		TeamTwo: teamTwo,
		Spread:  bestSpread,
	}, true
}

func averageEnqueue(entries []*queuedomain.Entry) time.Time {
	var total int64
	for _, e := range entries {
		total += e.EnqueuedAt.UnixNano()
	}
	return time.Unix(0, total/int64(len(entries)))
}
