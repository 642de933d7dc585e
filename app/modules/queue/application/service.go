// Package queueservice implements the queue facade over the per-region pools:
// join/leave/status for the command layer, pool access for the matching
// engine, and the wait-timeout sweeper.
package queueservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	queuedomain "github.com/circuit-league/matchmaker/app/modules/queue/domain"
	queueevents "github.com/circuit-league/matchmaker/app/modules/queue/domain/events"
	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
	"github.com/circuit-league/matchmaker/app/shared/attr"
	"github.com/circuit-league/matchmaker/app/shared/results"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
	"github.com/circuit-league/matchmaker/internal/observability/metrics"
)

// QueueService implements Service, PoolAccess, and MatchTracker.
type QueueService struct {
	users        userdb.Repository
	publisher    message.Publisher
	logger       *slog.Logger
	metrics      metrics.QueueMetrics
	tracer       trace.Tracer
	queueTimeout time.Duration

	// joinMu serializes admission checks across regions. A player holds at
	// most one live entry, and none at all while in an open match.
	joinMu sync.Mutex
	pools  map[sharedtypes.Region]*queuedomain.RegionPool
	kicks  map[sharedtypes.Region]chan struct{}

	matchMu sync.Mutex
	inMatch map[sharedtypes.UserID]sharedtypes.MatchID
}

// NewQueueService builds the facade with one pool per known region.
func NewQueueService(
	users userdb.Repository,
	publisher message.Publisher,
	logger *slog.Logger,
	queueMetrics metrics.QueueMetrics,
	tracer trace.Tracer,
	queueTimeout time.Duration,
) *QueueService {
	pools := make(map[sharedtypes.Region]*queuedomain.RegionPool)
	kicks := make(map[sharedtypes.Region]chan struct{})
	for _, region := range sharedtypes.Regions() {
		pools[region] = queuedomain.NewRegionPool(region)
		kicks[region] = make(chan struct{}, 1)
	}
	return &QueueService{
		users:        users,
		publisher:    publisher,
		logger:       logger,
		metrics:      queueMetrics,
		tracer:       tracer,
		queueTimeout: queueTimeout,
		pools:        pools,
		kicks:        kicks,
		inMatch:      make(map[sharedtypes.UserID]sharedtypes.MatchID),
	}
}

var (
	_ Service      = (*QueueService)(nil)
	_ PoolAccess   = (*QueueService)(nil)
	_ MatchTracker = (*QueueService)(nil)
)

// Join admits a player into their region's pool.
func (s *QueueService) Join(ctx context.Context, userID sharedtypes.UserID, region sharedtypes.Region) (JoinResult, error) {
	ctx, span := s.tracer.Start(ctx, "QueueService.Join")
	defer span.End()

	user, err := s.users.GetOrCreateUser(ctx, userID)
	if err != nil {
		return JoinResult{}, fmt.Errorf("Join: %w", err)
	}

	if region == "" {
		region = user.Settings.Region
	}
	if !region.IsValid() {
		return s.rejectJoin(ctx, userID, region, queueevents.ReasonUnknownRegion), nil
	}

	s.metrics.RecordJoinAttempt(region)

	if user.Blacklisted {
		return s.rejectJoin(ctx, userID, region, queueevents.ReasonBlacklisted), nil
	}

	entry := &queuedomain.Entry{
		UserID:     userID,
		Region:     region,
		Rating:     user.Trophies,
		EnqueuedAt: time.Now().UTC(),
	}
	if s.queueTimeout > 0 {
		entry.Deadline = entry.EnqueuedAt.Add(s.queueTimeout)
	}

	s.joinMu.Lock()
	if _, busy := s.currentMatch(userID); busy {
		s.joinMu.Unlock()
		return s.rejectJoin(ctx, userID, region, queueevents.ReasonInMatch), nil
	}
	for _, pool := range s.pools {
		if _, queued := pool.Position(userID); queued {
			s.joinMu.Unlock()
			return s.rejectJoin(ctx, userID, region, queueevents.ReasonAlreadyQueued), nil
		}
	}
	err = s.pools[region].Enqueue(entry)
	s.joinMu.Unlock()
	if err != nil {
		return s.rejectJoin(ctx, userID, region, queueevents.ReasonAlreadyQueued), nil
	}

	pool := s.pools[region]
	s.metrics.SetPoolDepth(region, pool.Len())
	s.kick(region)

	position, _ := pool.Position(userID)
	s.logger.InfoContext(ctx, "Player joined queue",
		attr.ExtractCorrelationID(ctx),
		attr.UserID("user_id", userID),
		attr.Region("region", region),
		attr.Rating("rating", entry.Rating),
		attr.Int("position", position),
	)

	return results.Success[queueevents.JoinedPayloadV1, queueevents.JoinFailedPayloadV1](queueevents.JoinedPayloadV1{
		UserID:     userID,
		Region:     region,
		Rating:     entry.Rating,
		Position:   position,
		EnqueuedAt: entry.EnqueuedAt,
	}), nil
}

func (s *QueueService) rejectJoin(ctx context.Context, userID sharedtypes.UserID, region sharedtypes.Region, reason string) JoinResult {
	s.metrics.RecordJoinRejected(region, reason)
	s.logger.InfoContext(ctx, "Queue join rejected",
		attr.ExtractCorrelationID(ctx),
		attr.UserID("user_id", userID),
		attr.String("reason", reason),
	)
	return results.Failure[queueevents.JoinedPayloadV1, queueevents.JoinFailedPayloadV1](queueevents.JoinFailedPayloadV1{
		UserID: userID,
		Region: region,
		Reason: reason,
	})
}

// Leave cancels the player's live entry wherever it is.
func (s *QueueService) Leave(ctx context.Context, userID sharedtypes.UserID) (queueevents.LeftPayloadV1, error) {
	ctx, span := s.tracer.Start(ctx, "QueueService.Leave")
	defer span.End()

	for region, pool := range s.pools {
		if pool.CancelUser(userID) {
			s.metrics.RecordLeave(region)
			s.metrics.SetPoolDepth(region, pool.Len())
			s.logger.InfoContext(ctx, "Player left queue",
				attr.ExtractCorrelationID(ctx),
				attr.UserID("user_id", userID),
				attr.Region("region", region),
			)
			return queueevents.LeftPayloadV1{UserID: userID, Region: region, Removed: true}, nil
		}
	}
	// Already matched or never queued. Benign either way.
	return queueevents.LeftPayloadV1{UserID: userID, Removed: false}, nil
}

// Status answers not_queued, queued with position, or in_match.
func (s *QueueService) Status(ctx context.Context, userID sharedtypes.UserID) queueevents.StatusResponsePayloadV1 {
	_, span := s.tracer.Start(ctx, "QueueService.Status")
	defer span.End()

	for region, pool := range s.pools {
		if position, ok := pool.Position(userID); ok {
			return queueevents.StatusResponsePayloadV1{
				UserID:   userID,
				Kind:     queueevents.StatusQueued,
				Region:   region,
				Position: position,
			}
		}
	}

	if matchID, ok := s.currentMatch(userID); ok {
		return queueevents.StatusResponsePayloadV1{
			UserID:  userID,
			Kind:    queueevents.StatusInMatch,
			MatchID: matchID,
		}
	}

	return queueevents.StatusResponsePayloadV1{UserID: userID, Kind: queueevents.StatusNotQueued}
}

func (s *QueueService) currentMatch(userID sharedtypes.UserID) (sharedtypes.MatchID, bool) {
	s.matchMu.Lock()
	defer s.matchMu.Unlock()
	matchID, ok := s.inMatch[userID]
	return matchID, ok
}

// Pool exposes a region's pool to the matching engine.
func (s *QueueService) Pool(region sharedtypes.Region) *queuedomain.RegionPool {
	return s.pools[region]
}

// Kick exposes a region's enqueue signal to the matching engine.
func (s *QueueService) Kick(region sharedtypes.Region) <-chan struct{} {
	return s.kicks[region]
}

func (s *QueueService) kick(region sharedtypes.Region) {
	select {
	case s.kicks[region] <- struct{}{}:
	default:
	}
}

// MarkInMatch records match membership for status answers.
func (s *QueueService) MarkInMatch(users []sharedtypes.UserID, matchID sharedtypes.MatchID) {
	s.matchMu.Lock()
	defer s.matchMu.Unlock()
	for _, userID := range users {
		s.inMatch[userID] = matchID
	}
}

// ClearMatch forgets match membership once a match reaches a terminal state.
func (s *QueueService) ClearMatch(users []sharedtypes.UserID) {
	s.matchMu.Lock()
	defer s.matchMu.Unlock()
	for _, userID := range users {
		delete(s.inMatch, userID)
	}
}

// RequeueEntries returns players to their pool at their original position
// after a transient match-creation failure.
func (s *QueueService) RequeueEntries(ctx context.Context, entries []*queuedomain.Entry) error {
	for _, entry := range entries {
		pool, ok := s.pools[entry.Region]
		if !ok {
			return fmt.Errorf("RequeueEntries: unknown region %q", entry.Region)
		}
		if err := pool.Requeue(entry); err != nil {
			// The player re-joined on their own in the meantime; their newer
			// entry wins.
			s.logger.WarnContext(ctx, "Skipping requeue, player already queued",
				attr.UserID("user_id", entry.UserID),
				attr.Region("region", entry.Region),
			)
			continue
		}
		s.metrics.SetPoolDepth(entry.Region, pool.Len())
	}
	// No kick: the engine's next tick picks the entries back up. Kicking
	// here would re-pair them immediately against the same failure.
	return nil
}

// RunTimeoutSweeper expires overdue entries until the context ends. Expiries
// are reported as timeout events, not errors.
func (s *QueueService) RunTimeoutSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepExpired(ctx, time.Now().UTC())
		}
	}
}

func (s *QueueService) sweepExpired(ctx context.Context, now time.Time) {
	for region, pool := range s.pools {
		expired := pool.ExpireBefore(now)
		if len(expired) == 0 {
			continue
		}
		s.metrics.SetPoolDepth(region, pool.Len())
		for _, entry := range expired {
			s.metrics.RecordTimeout(region)
			s.logger.InfoContext(ctx, "Queue entry timed out",
				attr.UserID("user_id", entry.UserID),
				attr.Region("region", region),
				attr.Duration("waited", now.Sub(entry.EnqueuedAt)),
			)
			s.publishTimeout(entry)
		}
	}
}

func (s *QueueService) publishTimeout(entry *queuedomain.Entry) {
	if s.publisher == nil {
		return
	}
	payload := queueevents.TimeoutPayloadV1{
		UserID:     entry.UserID,
		Region:     entry.Region,
		EnqueuedAt: entry.EnqueuedAt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to marshal timeout payload", attr.Error(err))
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	if err := s.publisher.Publish(queueevents.TimeoutV1, msg); err != nil {
		s.logger.Error("Failed to publish queue timeout",
			attr.UserID("user_id", entry.UserID),
			attr.Error(err),
		)
	}
}
