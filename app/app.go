// Package app wires configuration, storage, the event bus, the module
// routers, and the background loops into one runnable unit.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"github.com/circuit-league/matchmaker/app/adapters/discordnotify"
	matchservice "github.com/circuit-league/matchmaker/app/modules/match/application"
	matchdomain "github.com/circuit-league/matchmaker/app/modules/match/domain"
	matchevents "github.com/circuit-league/matchmaker/app/modules/match/domain/events"
	matchrouter "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/router"
	matchmaking "github.com/circuit-league/matchmaker/app/modules/matchmaking/application"
	queueservice "github.com/circuit-league/matchmaker/app/modules/queue/application"
	queueevents "github.com/circuit-league/matchmaker/app/modules/queue/domain/events"
	queuerouter "github.com/circuit-league/matchmaker/app/modules/queue/infrastructure/router"
	userservice "github.com/circuit-league/matchmaker/app/modules/user/application"
	userevents "github.com/circuit-league/matchmaker/app/modules/user/domain/events"
	userrouter "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/router"
	"github.com/circuit-league/matchmaker/app/shared/utils"
	"github.com/circuit-league/matchmaker/config"
	"github.com/circuit-league/matchmaker/internal/db/bundb"
	"github.com/circuit-league/matchmaker/internal/eventbus"
	"github.com/circuit-league/matchmaker/internal/observability"
	"github.com/circuit-league/matchmaker/internal/observability/metrics"
)

const appID = "matchmaker"

// App holds every long-lived component of the matchmaking backend.
type App struct {
	Config        *config.Config
	Observability *observability.Provider
	DB            *bundb.DBService
	EventBus      *eventbus.EventBus

	QueueService *queueservice.QueueService
	MatchService *matchservice.MatchService
	Engine       *matchmaking.Engine

	routers []*message.Router
}

// NewApp builds and wires the whole backend. Nothing runs until Run.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	obs := observability.NewProvider(cfg.Observability.Environment, cfg.Observability.MetricsAddress)
	logger := obs.Logger

	db, err := bundb.NewBunDBService(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus, err := eventbus.New(ctx, cfg.NATS.URL, logger, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}
	for _, stream := range []string{userevents.Stream, queueevents.Stream, matchevents.Stream} {
		if err := bus.ProvisionStream(stream, []string{stream + ".>"}); err != nil {
			return nil, fmt.Errorf("failed to provision stream %s: %w", stream, err)
		}
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	// REST-only usage; no gateway connection is opened.
	notifier := discordnotify.New(session, cfg.Discord.RegionChannels, logger)

	queueMetrics := metrics.NewQueueMetrics(obs.Registry)
	engineMetrics := metrics.NewEngineMetrics(obs.Registry)
	matchMetrics := metrics.NewMatchMetrics(obs.Registry)

	userSvc := userservice.NewUserService(db.User, logger, observability.Tracer("user"))
	queueSvc := queueservice.NewQueueService(
		db.User,
		bus.Publisher(),
		logger,
		queueMetrics,
		observability.Tracer("queue"),
		cfg.Matchmaking.QueueTimeout,
	)
	matchSvc := matchservice.NewMatchService(
		db.Match,
		db.User,
		notifier,
		queueSvc,
		bus.Publisher(),
		logger,
		matchMetrics,
		observability.Tracer("match"),
		matchdomain.GapCalculator{
			BaseGain:   int(cfg.Matchmaking.BaseGain),
			GapDivisor: cfg.Matchmaking.GapDivisor,
			MinGain:    int(cfg.Matchmaking.MinGain),
			MaxGain:    int(cfg.Matchmaking.MaxGain),
		},
		cfg.Matchmaking.ScoreDeadline,
	)
	engine := matchmaking.NewEngine(
		queueSvc,
		matchSvc,
		logger,
		engineMetrics,
		observability.Tracer("engine"),
		cfg.Matchmaking.TeamSize,
		cfg.Matchmaking.MaxSpread,
		cfg.Matchmaking.TickInterval,
	)

	helpers := utils.NewHelpers(logger)
	publisher := eventbus.NewRoutingPublisher(bus.Publisher())

	a := &App{
		Config:        cfg,
		Observability: obs,
		DB:            db,
		EventBus:      bus,
		QueueService:  queueSvc,
		MatchService:  matchSvc,
		Engine:        engine,
	}

	userWM, err := newRouter(logger)
	if err != nil {
		return nil, err
	}
	ur := userrouter.NewUserRouter(logger, userWM, bus.Subscriber(), publisher, helpers, observability.Tracer("user"), obs.Registry)
	if err := ur.Configure(ctx, userSvc); err != nil {
		return nil, fmt.Errorf("failed to configure user router: %w", err)
	}
	a.routers = append(a.routers, userWM)

	queueWM, err := newRouter(logger)
	if err != nil {
		return nil, err
	}
	qr := queuerouter.NewQueueRouter(logger, queueWM, bus.Subscriber(), publisher, helpers, observability.Tracer("queue"), obs.Registry)
	if err := qr.Configure(ctx, queueSvc); err != nil {
		return nil, fmt.Errorf("failed to configure queue router: %w", err)
	}
	a.routers = append(a.routers, queueWM)

	matchWM, err := newRouter(logger)
	if err != nil {
		return nil, err
	}
	mr := matchrouter.NewMatchRouter(logger, matchWM, bus.Subscriber(), publisher, helpers, observability.Tracer("match"), obs.Registry)
	if err := mr.Configure(ctx, matchSvc); err != nil {
		return nil, fmt.Errorf("failed to configure match router: %w", err)
	}
	a.routers = append(a.routers, matchWM)

	return a, nil
}

// newRouter builds a watermill router with the standard middleware chain.
func newRouter(logger *slog.Logger) (*message.Router, error) {
	wmLogger := watermill.NewSlogLogger(logger)
	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}
	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          wmLogger,
		}.Middleware,
		middleware.Recoverer,
	)
	return router, nil
}

// Run starts the HTTP surface, the module routers, the matching engine, and
// the sweepers, and blocks until the context ends or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.Observability.Serve(ctx) })
	for _, router := range a.routers {
		g.Go(func() error { return router.Run(ctx) })
	}
	g.Go(func() error { return a.Engine.Run(ctx) })
	g.Go(func() error { return a.QueueService.RunTimeoutSweeper(ctx, a.Config.Matchmaking.TickInterval) })
	g.Go(func() error { return a.MatchService.RunDeadlineSweeper(ctx, time.Minute) })

	return g.Wait()
}

// Close releases the bus and database connections.
func (a *App) Close() error {
	var firstErr error
	for _, router := range a.routers {
		if err := router.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.EventBus.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.DB.GetDB().Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
