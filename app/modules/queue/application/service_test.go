package queueservice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	queueevents "github.com/circuit-league/matchmaker/app/modules/queue/domain/events"
	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
	"github.com/circuit-league/matchmaker/internal/observability"
	"github.com/circuit-league/matchmaker/internal/observability/metrics"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[sharedtypes.UserID]*userdb.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[sharedtypes.UserID]*userdb.User)}
}

var _ userdb.Repository = (*fakeUsers)(nil)

func (f *fakeUsers) put(user *userdb.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
}

func (f *fakeUsers) GetOrCreateUser(_ context.Context, userID sharedtypes.UserID) (*userdb.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[userID]; ok {
		return user, nil
	}
	user := &userdb.User{ID: userID, Settings: userdb.DefaultSettings()}
	f.users[userID] = user
	return user, nil
}

func (f *fakeUsers) GetUser(_ context.Context, userID sharedtypes.UserID) (*userdb.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, userdb.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUsers) UpdateSettings(context.Context, sharedtypes.UserID, userdb.Settings) error {
	return nil
}

func (f *fakeUsers) LinkRoblox(context.Context, sharedtypes.UserID, int64) error { return nil }

func (f *fakeUsers) SetBlacklisted(context.Context, sharedtypes.UserID, bool) error { return nil }

func (f *fakeUsers) ApplyRatingChanges(context.Context, bun.IDB, []userdb.RatingChange) error {
	return nil
}

func (f *fakeUsers) ResetSeason(context.Context) error { return nil }

func newTestService(users *fakeUsers, queueTimeout time.Duration) *QueueService {
	return NewQueueService(
		users,
		nil,
		observability.NoOpLogger,
		metrics.NoOpQueueMetrics{},
		noop.NewTracerProvider().Tracer("test"),
		queueTimeout,
	)
}

func TestJoin_UsesProfileRegionWhenUnspecified(t *testing.T) {
	users := newFakeUsers()
	users.put(&userdb.User{
		ID:       7,
		Trophies: 1200,
		Settings: userdb.Settings{Region: sharedtypes.RegionEurope},
	})
	svc := newTestService(users, 0)

	result, err := svc.Join(context.Background(), 7, "")
	require.NoError(t, err)
	require.True(t, result.IsSuccess())
	assert.Equal(t, sharedtypes.RegionEurope, result.Success.Region)
	assert.Equal(t, sharedtypes.Rating(1200), result.Success.Rating)
	assert.Equal(t, 1, result.Success.Position)
}

func TestJoin_UnknownRegion(t *testing.T) {
	users := newFakeUsers()
	users.put(&userdb.User{ID: 7, Settings: userdb.Settings{Region: "atlantis"}})
	svc := newTestService(users, 0)

	result, err := svc.Join(context.Background(), 7, "")
	require.NoError(t, err)
	require.True(t, result.IsFailure())
	assert.Equal(t, queueevents.ReasonUnknownRegion, result.Failure.Reason)
}

func TestJoin_Blacklisted(t *testing.T) {
	users := newFakeUsers()
	users.put(&userdb.User{ID: 7, Blacklisted: true, Settings: userdb.DefaultSettings()})
	svc := newTestService(users, 0)

	result, err := svc.Join(context.Background(), 7, sharedtypes.RegionUSEast)
	require.NoError(t, err)
	require.True(t, result.IsFailure())
	assert.Equal(t, queueevents.ReasonBlacklisted, result.Failure.Reason)
}

func TestJoin_RejectedWhileInOpenMatch(t *testing.T) {
	svc := newTestService(newFakeUsers(), 0)
	svc.MarkInMatch([]sharedtypes.UserID{7}, 42)

	result, err := svc.Join(context.Background(), 7, sharedtypes.RegionUSEast)
	require.NoError(t, err)
	require.True(t, result.IsFailure())
	assert.Equal(t, queueevents.ReasonInMatch, result.Failure.Reason)
	assert.Zero(t, svc.Pool(sharedtypes.RegionUSEast).Len())

	svc.ClearMatch([]sharedtypes.UserID{7})
	result, err = svc.Join(context.Background(), 7, sharedtypes.RegionUSEast)
	require.NoError(t, err)
	assert.True(t, result.IsSuccess(), "resolved match no longer blocks admission")
}

func TestJoin_AlreadyQueuedInAnotherRegion(t *testing.T) {
	svc := newTestService(newFakeUsers(), 0)

	first, err := svc.Join(context.Background(), 7, sharedtypes.RegionUSEast)
	require.NoError(t, err)
	require.True(t, first.IsSuccess())

	second, err := svc.Join(context.Background(), 7, sharedtypes.RegionEurope)
	require.NoError(t, err)
	require.True(t, second.IsFailure())
	assert.Equal(t, queueevents.ReasonAlreadyQueued, second.Failure.Reason)
	assert.Zero(t, svc.Pool(sharedtypes.RegionEurope).Len())
}

func TestJoin_SignalsEngine(t *testing.T) {
	svc := newTestService(newFakeUsers(), 0)

	_, err := svc.Join(context.Background(), 7, sharedtypes.RegionUSWest)
	require.NoError(t, err)

	select {
	case <-svc.Kick(sharedtypes.RegionUSWest):
	default:
		t.Fatal("expected an enqueue kick for us_west")
	}
}

func TestLeave(t *testing.T) {
	svc := newTestService(newFakeUsers(), 0)
	_, err := svc.Join(context.Background(), 7, sharedtypes.RegionUSEast)
	require.NoError(t, err)

	left, err := svc.Leave(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, left.Removed)
	assert.Equal(t, sharedtypes.RegionUSEast, left.Region)

	again, err := svc.Leave(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, again.Removed)
}

func TestStatus_Transitions(t *testing.T) {
	svc := newTestService(newFakeUsers(), 0)

	status := svc.Status(context.Background(), 7)
	assert.Equal(t, queueevents.StatusNotQueued, status.Kind)

	_, err := svc.Join(context.Background(), 7, sharedtypes.RegionUSEast)
	require.NoError(t, err)
	status = svc.Status(context.Background(), 7)
	assert.Equal(t, queueevents.StatusQueued, status.Kind)
	assert.Equal(t, 1, status.Position)

	pool := svc.Pool(sharedtypes.RegionUSEast)
	require.NoError(t, pool.RemoveMany(pool.Snapshot()))
	svc.MarkInMatch([]sharedtypes.UserID{7}, 42)
	status = svc.Status(context.Background(), 7)
	assert.Equal(t, queueevents.StatusInMatch, status.Kind)
	assert.Equal(t, sharedtypes.MatchID(42), status.MatchID)

	svc.ClearMatch([]sharedtypes.UserID{7})
	status = svc.Status(context.Background(), 7)
	assert.Equal(t, queueevents.StatusNotQueued, status.Kind)
}

func TestRequeueEntries_RestoresPosition(t *testing.T) {
	svc := newTestService(newFakeUsers(), 0)
	ctx := context.Background()

	for _, id := range []sharedtypes.UserID{1, 2, 3} {
		_, err := svc.Join(ctx, id, sharedtypes.RegionUSEast)
		require.NoError(t, err)
	}
	pool := svc.Pool(sharedtypes.RegionUSEast)
	entries := pool.Snapshot()[:2]
	require.NoError(t, pool.RemoveMany(entries))

	require.NoError(t, svc.RequeueEntries(ctx, entries))

	position, ok := pool.Position(1)
	require.True(t, ok)
	assert.Equal(t, 1, position, "requeued entries keep their original order")
}

func TestRequeueEntries_SkipsRejoinedPlayer(t *testing.T) {
	svc := newTestService(newFakeUsers(), 0)
	ctx := context.Background()

	_, err := svc.Join(ctx, 1, sharedtypes.RegionUSEast)
	require.NoError(t, err)
	pool := svc.Pool(sharedtypes.RegionUSEast)
	entries := pool.Snapshot()
	require.NoError(t, pool.RemoveMany(entries))

	// Player re-joined before the rollback landed.
	_, err = svc.Join(ctx, 1, sharedtypes.RegionUSEast)
	require.NoError(t, err)

	require.NoError(t, svc.RequeueEntries(ctx, entries))
	assert.Equal(t, 1, pool.Len(), "the newer entry wins")
}

func TestSweepExpired(t *testing.T) {
	svc := newTestService(newFakeUsers(), 10*time.Minute)
	ctx := context.Background()

	_, err := svc.Join(ctx, 1, sharedtypes.RegionUSEast)
	require.NoError(t, err)
	_, err = svc.Join(ctx, 2, sharedtypes.RegionUSWest)
	require.NoError(t, err)

	svc.sweepExpired(ctx, time.Now().UTC().Add(11*time.Minute))

	assert.Zero(t, svc.Pool(sharedtypes.RegionUSEast).Len())
	assert.Zero(t, svc.Pool(sharedtypes.RegionUSWest).Len())

	status := svc.Status(ctx, 1)
	assert.Equal(t, queueevents.StatusNotQueued, status.Kind)
}

func TestSweepExpired_NoTimeoutConfigured(t *testing.T) {
	svc := newTestService(newFakeUsers(), 0)
	ctx := context.Background()

	_, err := svc.Join(ctx, 1, sharedtypes.RegionUSEast)
	require.NoError(t, err)

	svc.sweepExpired(ctx, time.Now().UTC().Add(24*time.Hour))
	assert.Equal(t, 1, svc.Pool(sharedtypes.RegionUSEast).Len())
}
