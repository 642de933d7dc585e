// Package matchservice implements the match lifecycle manager: formation from
// engine pairings, score collection, resolution with rating writes, and the
// report-deadline sweeper.
package matchservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/trace"

	matchdomain "github.com/circuit-league/matchmaker/app/modules/match/domain"
	matchdb "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/repositories"
	queueservice "github.com/circuit-league/matchmaker/app/modules/queue/application"
	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
	"github.com/circuit-league/matchmaker/app/shared/attr"
	"github.com/circuit-league/matchmaker/internal/observability/metrics"
)

// MatchService implements Service and the engine's creator contract.
type MatchService struct {
	repo       matchdb.Repository
	users      userdb.Repository
	notifier   Notifier
	tracker    queueservice.MatchTracker
	publisher  message.Publisher
	logger     *slog.Logger
	metrics    metrics.MatchMetrics
	tracer     trace.Tracer
	calculator matchdomain.RatingCalculator

	scoreDeadline time.Duration

	// newResolveBackoff builds the retry policy for resolution persistence
	// writes. Swappable so tests do not sleep.
	newResolveBackoff func() backoff.BackOff
}

// NewMatchService builds the lifecycle manager.
func NewMatchService(
	repo matchdb.Repository,
	users userdb.Repository,
	notifier Notifier,
	tracker queueservice.MatchTracker,
	publisher message.Publisher,
	logger *slog.Logger,
	matchMetrics metrics.MatchMetrics,
	tracer trace.Tracer,
	calculator matchdomain.RatingCalculator,
	scoreDeadline time.Duration,
) *MatchService {
	return &MatchService{
		repo:          repo,
		users:         users,
		notifier:      notifier,
		tracker:       tracker,
		publisher:     publisher,
		logger:        logger,
		metrics:       matchMetrics,
		tracer:        tracer,
		calculator:    calculator,
		scoreDeadline: scoreDeadline,
		newResolveBackoff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
		},
	}
}

var _ Service = (*MatchService)(nil)

func (s *MatchService) publish(ctx context.Context, topic string, payload any) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal match event", attr.String("topic", topic), attr.Error(err))
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	if err := s.publisher.Publish(topic, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish match event", attr.String("topic", topic), attr.Error(err))
	}
}
