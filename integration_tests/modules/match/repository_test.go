package matchintegration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	matchdomain "github.com/circuit-league/matchmaker/app/modules/match/domain"
	matchdb "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/repositories"
	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
	"github.com/circuit-league/matchmaker/integration_tests/testutils"
)

var env *testutils.Env

func TestMain(m *testing.M) {
	ctx := context.Background()
	var err error
	env, err = testutils.Setup(ctx)
	if err != nil {
		log.Fatalf("failed to set up test environment: %v", err)
	}
	code := m.Run()
	env.Teardown(ctx)
	os.Exit(code)
}

func newMatch(t *testing.T, region sharedtypes.Region) *matchdb.Match {
	t.Helper()
	match := &matchdb.Match{
		Region:         region,
		State:          string(matchdomain.StateFormed),
		TeamOne:        []sharedtypes.UserID{1, 3},
		TeamTwo:        []sharedtypes.UserID{2, 4},
		TeamOneRatings: []sharedtypes.Rating{1000, 1390},
		TeamTwoRatings: []sharedtypes.Rating{1010, 1400},
	}
	require.NoError(t, env.DB.Match.CreateMatch(context.Background(), match))
	return match
}

func awaitingMatch(t *testing.T, region sharedtypes.Region) *matchdb.Match {
	t.Helper()
	match := newMatch(t, region)
	deadline := time.Now().UTC().Add(2 * time.Hour)
	require.NoError(t, env.DB.Match.SetThread(context.Background(), match.ID, "thread-1", "prompt-1", deadline))
	fetched, err := env.DB.Match.GetMatch(context.Background(), match.ID)
	require.NoError(t, err)
	return fetched
}

func TestCreateAndGetMatch(t *testing.T) {
	env.Reset(t)
	ctx := context.Background()

	match := newMatch(t, sharedtypes.RegionUSEast)
	require.NotZero(t, match.ID)

	fetched, err := env.DB.Match.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, string(matchdomain.StateFormed), fetched.State)
	assert.Equal(t, []sharedtypes.UserID{1, 3}, fetched.TeamOne)
	assert.Equal(t, []sharedtypes.UserID{2, 4}, fetched.TeamTwo)
	assert.ElementsMatch(t, []sharedtypes.UserID{1, 2, 3, 4}, fetched.Players())

	_, err = env.DB.Match.GetMatch(ctx, match.ID+999)
	assert.ErrorIs(t, err, matchdb.ErrMatchNotFound)
}

func TestSetThread(t *testing.T) {
	env.Reset(t)

	match := awaitingMatch(t, sharedtypes.RegionUSEast)
	assert.Equal(t, string(matchdomain.StateAwaitingScore), match.State)
	assert.Equal(t, "thread-1", match.ThreadID)
	assert.Equal(t, "prompt-1", match.ScoreMessageID)
	assert.False(t, match.ReportDeadline.IsZero())
}

func TestRecordScore(t *testing.T) {
	env.Reset(t)
	ctx := context.Background()
	match := awaitingMatch(t, sharedtypes.RegionUSEast)

	_, complete, err := env.DB.Match.RecordScore(ctx, match.ID, sharedtypes.TeamOne, 3)
	require.NoError(t, err)
	assert.False(t, complete)

	_, _, err = env.DB.Match.RecordScore(ctx, match.ID, sharedtypes.TeamOne, 5)
	assert.ErrorIs(t, err, matchdb.ErrDuplicateReport)

	updated, complete, err := env.DB.Match.RecordScore(ctx, match.ID, sharedtypes.TeamTwo, 5)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, 3, updated.Scores[matchdb.ScoreKey(sharedtypes.TeamOne)])
	assert.Equal(t, 5, updated.Scores[matchdb.ScoreKey(sharedtypes.TeamTwo)])
}

func TestRecordScore_RequiresAwaitingState(t *testing.T) {
	env.Reset(t)
	ctx := context.Background()
	match := newMatch(t, sharedtypes.RegionUSEast)

	_, _, err := env.DB.Match.RecordScore(ctx, match.ID, sharedtypes.TeamOne, 3)
	assert.ErrorIs(t, err, matchdb.ErrInvalidTransition)
}

func TestResolve_AppliesRatingsTransactionally(t *testing.T) {
	env.Reset(t)
	ctx := context.Background()
	match := awaitingMatch(t, sharedtypes.RegionUSEast)

	for _, id := range match.Players() {
		_, err := env.DB.User.GetOrCreateUser(ctx, id)
		require.NoError(t, err)
	}

	changes := []userdb.RatingChange{
		{UserID: 2, Delta: 28, Won: true},
		{UserID: 4, Delta: 28, Won: true},
		{UserID: 1, Delta: -28, Won: false},
		{UserID: 3, Delta: -28, Won: false},
	}
	err := env.DB.Match.Resolve(ctx, match.ID, func(ctx context.Context, idb bun.IDB) error {
		return env.DB.User.ApplyRatingChanges(ctx, idb, changes)
	})
	require.NoError(t, err)

	resolved, err := env.DB.Match.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, string(matchdomain.StateResolved), resolved.State)
	assert.False(t, resolved.ResolvedAt.IsZero())

	winner, err := env.DB.User.GetUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, sharedtypes.Rating(28), winner.Trophies)

	err = env.DB.Match.Resolve(ctx, match.ID, nil)
	assert.ErrorIs(t, err, matchdb.ErrAlreadyResolved)
}

func TestResolve_RatingFailureRollsBackState(t *testing.T) {
	env.Reset(t)
	ctx := context.Background()
	match := awaitingMatch(t, sharedtypes.RegionUSEast)

	// No user rows exist, so applying changes fails inside the transaction.
	changes := []userdb.RatingChange{{UserID: 1, Delta: 10, Won: true}}
	err := env.DB.Match.Resolve(ctx, match.ID, func(ctx context.Context, idb bun.IDB) error {
		return env.DB.User.ApplyRatingChanges(ctx, idb, changes)
	})
	require.Error(t, err)

	unchanged, getErr := env.DB.Match.GetMatch(ctx, match.ID)
	require.NoError(t, getErr)
	assert.Equal(t, string(matchdomain.StateAwaitingScore), unchanged.State, "state write rolls back with the ratings")
}

func TestCancel(t *testing.T) {
	env.Reset(t)
	ctx := context.Background()
	match := awaitingMatch(t, sharedtypes.RegionUSEast)

	cancelled, err := env.DB.Match.Cancel(ctx, match.ID, "manual")
	require.NoError(t, err)
	assert.Equal(t, string(matchdomain.StateCancelled), cancelled.State)
	assert.Equal(t, "manual", cancelled.CancelReason)

	_, err = env.DB.Match.Cancel(ctx, match.ID, "manual")
	assert.ErrorIs(t, err, matchdb.ErrAlreadyResolved)
}

func TestMarkResolutionPending(t *testing.T) {
	env.Reset(t)
	ctx := context.Background()
	match := awaitingMatch(t, sharedtypes.RegionUSEast)

	require.NoError(t, env.DB.Match.MarkResolutionPending(ctx, match.ID))

	flagged, err := env.DB.Match.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.True(t, flagged.ResolutionPending)
}

func TestListActive(t *testing.T) {
	env.Reset(t)
	ctx := context.Background()

	east := awaitingMatch(t, sharedtypes.RegionUSEast)
	west := awaitingMatch(t, sharedtypes.RegionUSWest)
	_, err := env.DB.Match.Cancel(ctx, west.ID, "manual")
	require.NoError(t, err)

	all, err := env.DB.Match.ListActive(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, east.ID, all[0].ID)

	none, err := env.DB.Match.ListActive(ctx, sharedtypes.RegionUSWest)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListOverdue(t *testing.T) {
	env.Reset(t)
	ctx := context.Background()

	match := newMatch(t, sharedtypes.RegionUSEast)
	pastDeadline := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, env.DB.Match.SetThread(ctx, match.ID, "thread-1", "prompt-1", pastDeadline))
	fresh := awaitingMatch(t, sharedtypes.RegionUSEast)

	overdue, err := env.DB.Match.ListOverdue(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, match.ID, overdue[0].ID)
	assert.NotEqual(t, fresh.ID, overdue[0].ID)
}
