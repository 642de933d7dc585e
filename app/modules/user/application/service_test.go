package userservice

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
	"github.com/circuit-league/matchmaker/internal/observability"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[sharedtypes.UserID]*userdb.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[sharedtypes.UserID]*userdb.User)}
}

var _ userdb.Repository = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) GetOrCreateUser(_ context.Context, userID sharedtypes.UserID) (*userdb.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[userID]; ok {
		copied := *user
		return &copied, nil
	}
	user := &userdb.User{ID: userID, Settings: userdb.DefaultSettings()}
	f.users[userID] = user
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetUser(_ context.Context, userID sharedtypes.UserID) (*userdb.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, userdb.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) UpdateSettings(_ context.Context, userID sharedtypes.UserID, settings userdb.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return userdb.ErrUserNotFound
	}
	user.Settings = settings
	return nil
}

func (f *fakeUserRepo) LinkRoblox(_ context.Context, userID sharedtypes.UserID, robloxID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return userdb.ErrUserNotFound
	}
	user.RobloxID = &robloxID
	return nil
}

func (f *fakeUserRepo) SetBlacklisted(_ context.Context, userID sharedtypes.UserID, blacklisted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return userdb.ErrUserNotFound
	}
	user.Blacklisted = blacklisted
	return nil
}

func (f *fakeUserRepo) ApplyRatingChanges(context.Context, bun.IDB, []userdb.RatingChange) error {
	return nil
}

func (f *fakeUserRepo) ResetSeason(context.Context) error { return nil }

func newTestService(repo userdb.Repository) *UserService {
	return NewUserService(repo, observability.NoOpLogger, noop.NewTracerProvider().Tracer("test"))
}

func TestGetUser_CreatesOnFirstSight(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	result, err := svc.GetUser(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, result.IsSuccess())
	assert.Equal(t, sharedtypes.UserID(7), result.Success.ID)
	assert.Equal(t, sharedtypes.Rating(0), result.Success.Trophies)
	assert.Equal(t, sharedtypes.RegionUSEast, result.Success.Settings.Region)
	assert.False(t, result.Success.Blacklisted)
}

func TestUpdateRegion(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	result, err := svc.UpdateRegion(context.Background(), 7, sharedtypes.RegionEurope)
	require.NoError(t, err)
	require.True(t, result.IsSuccess())
	assert.Equal(t, sharedtypes.RegionEurope, result.Success.Settings.Region)

	stored, err := repo.GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, sharedtypes.RegionEurope, stored.Settings.Region)
}

func TestUpdateRegion_UnknownRegion(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	result, err := svc.UpdateRegion(context.Background(), 7, "atlantis")
	require.NoError(t, err)
	require.True(t, result.IsFailure())
	assert.Equal(t, sharedtypes.UserID(7), result.Failure.UserID)
}

func TestLinkRoblox(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	result, err := svc.LinkRoblox(context.Background(), 7, 123456)
	require.NoError(t, err)
	require.True(t, result.IsSuccess())
	require.NotNil(t, result.Success.RobloxID)
	assert.Equal(t, int64(123456), *result.Success.RobloxID)
}

func TestLinkRoblox_InvalidID(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	result, err := svc.LinkRoblox(context.Background(), 7, 0)
	require.NoError(t, err)
	require.True(t, result.IsFailure())
}

func TestSetBlacklisted_CreatesMissingRecord(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	require.NoError(t, svc.SetBlacklisted(context.Background(), 7, true))

	stored, err := repo.GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, stored.Blacklisted)

	require.NoError(t, svc.SetBlacklisted(context.Background(), 7, false))
	stored, err = repo.GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, stored.Blacklisted)
}
