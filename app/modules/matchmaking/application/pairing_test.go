package matchmaking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	queuedomain "github.com/circuit-league/matchmaker/app/modules/queue/domain"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

func entry(id sharedtypes.UserID, rating sharedtypes.Rating, enqueuedAt time.Time) *queuedomain.Entry {
	return &queuedomain.Entry{
		UserID:     id,
		Region:     sharedtypes.RegionUSEast,
		Rating:     rating,
		EnqueuedAt: enqueuedAt,
	}
}

func ids(entries []*queuedomain.Entry) []sharedtypes.UserID {
	out := make([]sharedtypes.UserID, len(entries))
	for i, e := range entries {
		out[i] = e.UserID
	}
	return out
}

func TestFindPairing_SpreadTooWide(t *testing.T) {
	base := time.Now().UTC()
	snapshot := []*queuedomain.Entry{
		entry(1, 1000, base),
		entry(2, 1010, base.Add(time.Second)),
		entry(3, 1390, base.Add(2*time.Second)),
		entry(4, 1400, base.Add(3*time.Second)),
	}

	_, ok := FindPairing(snapshot, 2, 50)
	assert.False(t, ok, "spread 400 exceeds threshold 50")
}

func TestFindPairing_ZigZagSplit(t *testing.T) {
	base := time.Now().UTC()
	snapshot := []*queuedomain.Entry{
		entry(1, 1000, base),
		entry(2, 1010, base.Add(time.Second)),
		entry(3, 1390, base.Add(2*time.Second)),
		entry(4, 1400, base.Add(3*time.Second)),
	}

	pairing, ok := FindPairing(snapshot, 2, 500)
	require.True(t, ok)

	assert.Equal(t, sharedtypes.Rating(400), pairing.Spread)
	assert.Equal(t, []sharedtypes.UserID{1, 3}, ids(pairing.TeamOne))
	assert.Equal(t, []sharedtypes.UserID{2, 4}, ids(pairing.TeamTwo))

	sum := func(entries []*queuedomain.Entry) (total int) {
		for _, e := range entries {
			total += int(e.Rating)
		}
		return total
	}
	assert.Equal(t, 2390, sum(pairing.TeamOne))
	assert.Equal(t, 2410, sum(pairing.TeamTwo))
}

func TestFindPairing_PrefersTightestWindow(t *testing.T) {
	base := time.Now().UTC()
	snapshot := []*queuedomain.Entry{
		entry(1, 1000, base),
		entry(2, 1200, base.Add(time.Second)),
		entry(3, 1210, base.Add(2*time.Second)),
		entry(4, 1220, base.Add(3*time.Second)),
		entry(5, 1230, base.Add(4*time.Second)),
	}

	pairing, ok := FindPairing(snapshot, 2, 500)
	require.True(t, ok)
	assert.Equal(t, sharedtypes.Rating(30), pairing.Spread)
	assert.Equal(t, []sharedtypes.UserID{2, 3, 4, 5}, ids(pairing.Window))
}

func TestFindPairing_EqualSpreadFIFOTieBreak(t *testing.T) {
	base := time.Now().UTC()
	// Two disjoint zero-spread windows; the older group must win.
	snapshot := []*queuedomain.Entry{
		entry(1, 2000, base),
		entry(2, 2000, base.Add(time.Second)),
		entry(3, 2000, base.Add(2*time.Second)),
		entry(4, 2000, base.Add(3*time.Second)),
		entry(5, 3000, base.Add(4*time.Second)),
		entry(6, 3000, base.Add(5*time.Second)),
		entry(7, 3000, base.Add(6*time.Second)),
		entry(8, 3000, base.Add(7*time.Second)),
	}

	pairing, ok := FindPairing(snapshot, 2, 500)
	require.True(t, ok)
	assert.Equal(t, sharedtypes.Rating(0), pairing.Spread)
	assert.Equal(t, []sharedtypes.UserID{1, 2, 3, 4}, ids(pairing.Window))
}

func TestFindPairing_OneVersusOne(t *testing.T) {
	base := time.Now().UTC()
	snapshot := []*queuedomain.Entry{
		entry(1, 900, base),
		entry(2, 950, base.Add(time.Second)),
	}

	pairing, ok := FindPairing(snapshot, 1, 100)
	require.True(t, ok)
	require.Len(t, pairing.TeamOne, 1)
	require.Len(t, pairing.TeamTwo, 1)
	assert.Equal(t, sharedtypes.UserID(1), pairing.TeamOne[0].UserID)
	assert.Equal(t, sharedtypes.UserID(2), pairing.TeamTwo[0].UserID)
}

func TestFindPairing_NotEnoughPlayers(t *testing.T) {
	base := time.Now().UTC()
	snapshot := []*queuedomain.Entry{
		entry(1, 1000, base),
		entry(2, 1000, base.Add(time.Second)),
		entry(3, 1000, base.Add(2*time.Second)),
	}

	_, ok := FindPairing(snapshot, 2, 500)
	assert.False(t, ok)
}

func TestFindPairing_StableSortKeepsFIFOAmongEqualRatings(t *testing.T) {
	base := time.Now().UTC()
	snapshot := []*queuedomain.Entry{
		entry(1, 1000, base),
		entry(2, 1000, base.Add(time.Second)),
		entry(3, 1000, base.Add(2*time.Second)),
		entry(4, 1000, base.Add(3*time.Second)),
		entry(5, 1000, base.Add(4*time.Second)),
	}

	pairing, ok := FindPairing(snapshot, 2, 0)
	require.True(t, ok)
	assert.Equal(t, []sharedtypes.UserID{1, 2, 3, 4}, ids(pairing.Window))
}
