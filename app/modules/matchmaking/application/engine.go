package matchmaking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	queueservice "github.com/circuit-league/matchmaker/app/modules/queue/application"
	queuedomain "github.com/circuit-league/matchmaker/app/modules/queue/domain"
	"github.com/circuit-league/matchmaker/app/shared/attr"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
	"github.com/circuit-league/matchmaker/internal/observability/metrics"
)

// MatchCreator consumes a selected pairing and produces a match. The creator
// owns everything past pool removal, including rolling players back into the
// pool when match creation fails downstream. A non-nil error means no match
// went live; the same window would fail again, so the pass stops.
type MatchCreator interface {
	CreateFromPairing(ctx context.Context, region sharedtypes.Region, teamOne, teamTwo []*queuedomain.Entry) error
}

// Engine drains region pools into matches. Each region gets its own
// goroutine; a pass runs on a fixed tick and reactively after every enqueue,
// so regions never block one another.
type Engine struct {
	pools   queueservice.PoolAccess
	creator MatchCreator
	logger  *slog.Logger
	metrics metrics.EngineMetrics
	tracer  trace.Tracer

	teamSize  int
	maxSpread sharedtypes.Rating
	tick      time.Duration
}

// NewEngine wires the engine against the queue module's pools.
func NewEngine(
	pools queueservice.PoolAccess,
	creator MatchCreator,
	logger *slog.Logger,
	engineMetrics metrics.EngineMetrics,
	tracer trace.Tracer,
	teamSize int,
	maxSpread sharedtypes.Rating,
	tick time.Duration,
) *Engine {
	return &Engine{
		pools:     pools,
		creator:   creator,
		logger:    logger,
		metrics:   engineMetrics,
		tracer:    tracer,
		teamSize:  teamSize,
		maxSpread: maxSpread,
		tick:      tick,
	}
}

// Run drives one matching loop per region until the context ends.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, region := range sharedtypes.Regions() {
		g.Go(func() error {
			return e.runRegion(ctx, region)
		})
	}
	return g.Wait()
}

func (e *Engine) runRegion(ctx context.Context, region sharedtypes.Region) error {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-e.pools.Kick(region):
		}
		e.Pass(ctx, region)
	}
}

// Pass repeatedly pairs the region's pool until no feasible window remains,
// the creator fails, or the context ends. Returns the number of matches
// formed.
func (e *Engine) Pass(ctx context.Context, region sharedtypes.Region) int {
	ctx, span := e.tracer.Start(ctx, "Engine.Pass")
	defer span.End()

	start := time.Now()
	defer func() {
		e.metrics.RecordPass(region, time.Since(start))
	}()

	pool := e.pools.Pool(region)
	formed := 0
	for {
		if ctx.Err() != nil {
			return formed
		}

		pairing, ok := FindPairing(pool.Snapshot(), e.teamSize, e.maxSpread)
		if !ok {
			return formed
		}

		if err := pool.RemoveMany(pairing.Window); err != nil {
			if errors.Is(err, queuedomain.ErrStaleEntry) {
				// Another removal raced this window; recompute from a fresh
				// snapshot.
				e.metrics.RecordStaleRetry(region)
				continue
			}
			e.logger.ErrorContext(ctx, "Failed to remove paired entries",
				attr.Region("region", region),
				attr.Error(err),
			)
			return formed
		}

		if err := e.creator.CreateFromPairing(ctx, region, pairing.TeamOne, pairing.TeamTwo); err != nil {
			// The creator already rolled the players back; nothing more to
			// pair with right now.
			e.logger.ErrorContext(ctx, "Match creation failed",
				attr.Region("region", region),
				attr.Error(err),
			)
			return formed
		}

		e.metrics.RecordMatchFormed(region, pairing.Spread)
		formed++
	}
}
