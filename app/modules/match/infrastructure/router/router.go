// Package matchrouter wires the match module's handlers onto a watermill
// router.
package matchrouter

import (
	"context"
	"log/slog"

	wmmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	matchservice "github.com/circuit-league/matchmaker/app/modules/match/application"
	matchevents "github.com/circuit-league/matchmaker/app/modules/match/domain/events"
	matchhandlers "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/handlers"
	"github.com/circuit-league/matchmaker/app/shared/utils"
)

// MatchRouter registers the match module's handlers.
type MatchRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     message.Subscriber
	publisher      message.Publisher
	helpers        utils.Helpers
	tracer         trace.Tracer
	metricsBuilder *wmmetrics.PrometheusMetricsBuilder
}

// NewMatchRouter builds the module router. A nil registry (tests) skips the
// watermill prometheus middleware.
func NewMatchRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	helpers utils.Helpers,
	tracer trace.Tracer,
	registry *prometheus.Registry,
) *MatchRouter {
	var metricsBuilder *wmmetrics.PrometheusMetricsBuilder
	if registry != nil {
		builder := wmmetrics.NewPrometheusMetricsBuilder(registry, "", "")
		metricsBuilder = &builder
	}
	return &MatchRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		helpers:        helpers,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

// Configure registers the match handlers on the router.
func (r *MatchRouter) Configure(ctx context.Context, service matchservice.Service) error {
	if r.metricsBuilder != nil {
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}
	handlers := matchhandlers.NewMatchHandlers(service, r.logger, r.tracer)

	registerHandler(r, matchevents.ScoreReportRequestedV1, handlers.HandleScoreReportRequest)
	registerHandler(r, matchevents.CancelRequestedV1, handlers.HandleCancelRequest)
	return nil
}

// registerHandler registers a typed transformation handler. Result messages
// carry their own destination topic, so the publish topic stays empty.
func registerHandler[T any](
	r *MatchRouter,
	topic string,
	handler func(context.Context, *T) ([]utils.Result, error),
) {
	handlerName := "match." + topic
	r.Router.AddHandler(
		handlerName,
		topic,
		r.subscriber,
		"",
		r.publisher,
		utils.WrapHandler(handlerName, r.logger, r.tracer, r.helpers, handler),
	)
}

// Close stops the router.
func (r *MatchRouter) Close() error {
	return r.Router.Close()
}
