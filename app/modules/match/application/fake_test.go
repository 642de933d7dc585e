package matchservice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/uptrace/bun"

	matchdomain "github.com/circuit-league/matchmaker/app/modules/match/domain"
	matchdb "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/repositories"
	queuedomain "github.com/circuit-league/matchmaker/app/modules/queue/domain"
	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// fakeMatchRepo mirrors MatchDBImpl's state checks in memory.
type fakeMatchRepo struct {
	mu      sync.Mutex
	nextID  sharedtypes.MatchID
	matches map[sharedtypes.MatchID]*matchdb.Match

	createErr     error
	setThreadErr  error
	resolveFails  int // fail this many Resolve calls; -1 fails forever
	resolveCalls  int
	pendingMarked []sharedtypes.MatchID
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[sharedtypes.MatchID]*matchdb.Match)}
}

var _ matchdb.Repository = (*fakeMatchRepo)(nil)

func (f *fakeMatchRepo) CreateMatch(_ context.Context, match *matchdb.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	match.ID = f.nextID
	match.CreatedAt = time.Now().UTC()
	if match.State == "" {
		match.State = string(matchdomain.StateFormed)
	}
	f.matches[match.ID] = match
	return nil
}

func (f *fakeMatchRepo) GetMatch(_ context.Context, matchID sharedtypes.MatchID) (*matchdb.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	match, ok := f.matches[matchID]
	if !ok {
		return nil, matchdb.ErrMatchNotFound
	}
	return match, nil
}

func (f *fakeMatchRepo) SetThread(_ context.Context, matchID sharedtypes.MatchID, threadID, scoreMessageID string, reportDeadline time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setThreadErr != nil {
		return f.setThreadErr
	}
	match, ok := f.matches[matchID]
	if !ok {
		return matchdb.ErrMatchNotFound
	}
	if !matchdomain.State(match.State).CanTransition(matchdomain.StateAwaitingScore) {
		return matchdb.ErrInvalidTransition
	}
	match.State = string(matchdomain.StateAwaitingScore)
	match.ThreadID = threadID
	match.ScoreMessageID = scoreMessageID
	match.ReportDeadline = reportDeadline
	return nil
}

func (f *fakeMatchRepo) RecordScore(_ context.Context, matchID sharedtypes.MatchID, team sharedtypes.TeamNumber, score int) (*matchdb.Match, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	match, ok := f.matches[matchID]
	if !ok {
		return nil, false, matchdb.ErrMatchNotFound
	}
	if matchdomain.State(match.State) != matchdomain.StateAwaitingScore {
		return nil, false, matchdb.ErrInvalidTransition
	}
	if match.Scores == nil {
		match.Scores = map[string]int{}
	}
	key := matchdb.ScoreKey(team)
	if _, reported := match.Scores[key]; reported {
		return nil, false, matchdb.ErrDuplicateReport
	}
	match.Scores[key] = score
	return match, len(match.Scores) == 2, nil
}

func (f *fakeMatchRepo) Resolve(ctx context.Context, matchID sharedtypes.MatchID, applyRatings func(context.Context, bun.IDB) error) error {
	f.mu.Lock()
	f.resolveCalls++
	if f.resolveFails != 0 {
		if f.resolveFails > 0 {
			f.resolveFails--
		}
		f.mu.Unlock()
		return errors.New("database unavailable")
	}
	match, ok := f.matches[matchID]
	if !ok {
		f.mu.Unlock()
		return matchdb.ErrMatchNotFound
	}
	state := matchdomain.State(match.State)
	if state.Terminal() {
		f.mu.Unlock()
		return matchdb.ErrAlreadyResolved
	}
	if !state.CanTransition(matchdomain.StateResolved) {
		f.mu.Unlock()
		return matchdb.ErrInvalidTransition
	}
	match.State = string(matchdomain.StateResolved)
	match.ResolvedAt = time.Now().UTC()
	f.mu.Unlock()

	if applyRatings != nil {
		return applyRatings(ctx, nil)
	}
	return nil
}

func (f *fakeMatchRepo) Cancel(_ context.Context, matchID sharedtypes.MatchID, reason string) (*matchdb.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	match, ok := f.matches[matchID]
	if !ok {
		return nil, matchdb.ErrMatchNotFound
	}
	if matchdomain.State(match.State).Terminal() {
		return nil, matchdb.ErrAlreadyResolved
	}
	match.State = string(matchdomain.StateCancelled)
	match.CancelReason = reason
	return match, nil
}

func (f *fakeMatchRepo) MarkResolutionPending(_ context.Context, matchID sharedtypes.MatchID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.matches[matchID]; !ok {
		return matchdb.ErrMatchNotFound
	}
	f.pendingMarked = append(f.pendingMarked, matchID)
	f.matches[matchID].ResolutionPending = true
	return nil
}

func (f *fakeMatchRepo) ListActive(_ context.Context, region sharedtypes.Region) ([]matchdb.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []matchdb.Match
	for _, match := range f.matches {
		if matchdomain.State(match.State).Terminal() {
			continue
		}
		if region != "" && match.Region != region {
			continue
		}
		out = append(out, *match)
	}
	return out, nil
}

func (f *fakeMatchRepo) ListOverdue(_ context.Context, now time.Time) ([]matchdb.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []matchdb.Match
	for _, match := range f.matches {
		if matchdomain.State(match.State) != matchdomain.StateAwaitingScore {
			continue
		}
		if !match.ReportDeadline.IsZero() && !match.ReportDeadline.After(now) {
			out = append(out, *match)
		}
	}
	return out, nil
}

// fakeUserRepo applies rating changes in memory with the same trophy floor as
// the real repository.
type fakeUserRepo struct {
	mu       sync.Mutex
	trophies map[sharedtypes.UserID]sharedtypes.Rating
	applied  [][]userdb.RatingChange
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{trophies: make(map[sharedtypes.UserID]sharedtypes.Rating)}
}

var _ userdb.Repository = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) GetOrCreateUser(_ context.Context, userID sharedtypes.UserID) (*userdb.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &userdb.User{ID: userID, Trophies: f.trophies[userID], Settings: userdb.DefaultSettings()}, nil
}

func (f *fakeUserRepo) GetUser(ctx context.Context, userID sharedtypes.UserID) (*userdb.User, error) {
	return f.GetOrCreateUser(ctx, userID)
}

func (f *fakeUserRepo) UpdateSettings(context.Context, sharedtypes.UserID, userdb.Settings) error {
	return nil
}

func (f *fakeUserRepo) LinkRoblox(context.Context, sharedtypes.UserID, int64) error {
	return nil
}

func (f *fakeUserRepo) SetBlacklisted(context.Context, sharedtypes.UserID, bool) error {
	return nil
}

func (f *fakeUserRepo) ApplyRatingChanges(_ context.Context, _ bun.IDB, changes []userdb.RatingChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, changes)
	for _, change := range changes {
		trophies := f.trophies[change.UserID] + change.Delta
		if trophies < 0 {
			trophies = 0
		}
		f.trophies[change.UserID] = trophies
	}
	return nil
}

func (f *fakeUserRepo) ResetSeason(context.Context) error {
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	createErr error
	created   int
	posted    int
}

func (f *fakeNotifier) CreateMatchChannel(context.Context, *matchdb.Match) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", "", f.createErr
	}
	f.created++
	return "thread-1", "prompt-1", nil
}

func (f *fakeNotifier) PostResult(context.Context, *matchdb.Match, []userdb.RatingChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted++
	return nil
}

type fakeTracker struct {
	mu       sync.Mutex
	inMatch  map[sharedtypes.UserID]sharedtypes.MatchID
	requeued []*queuedomain.Entry
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{inMatch: make(map[sharedtypes.UserID]sharedtypes.MatchID)}
}

func (f *fakeTracker) MarkInMatch(users []sharedtypes.UserID, matchID sharedtypes.MatchID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range users {
		f.inMatch[id] = matchID
	}
}

func (f *fakeTracker) ClearMatch(users []sharedtypes.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range users {
		delete(f.inMatch, id)
	}
}

func (f *fakeTracker) RequeueEntries(_ context.Context, entries []*queuedomain.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requeued = append(f.requeued, entries...)
	return nil
}
