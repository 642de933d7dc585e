// Package queuerouter wires the queue module's handlers onto a watermill
// router.
package queuerouter

import (
	"context"
	"log/slog"

	wmmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	queueservice "github.com/circuit-league/matchmaker/app/modules/queue/application"
	queueevents "github.com/circuit-league/matchmaker/app/modules/queue/domain/events"
	queuehandlers "github.com/circuit-league/matchmaker/app/modules/queue/infrastructure/handlers"
	"github.com/circuit-league/matchmaker/app/shared/utils"
)

// QueueRouter registers the queue module's handlers.
type QueueRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     message.Subscriber
	publisher      message.Publisher
	helpers        utils.Helpers
	tracer         trace.Tracer
	metricsBuilder *wmmetrics.PrometheusMetricsBuilder
}

// NewQueueRouter builds the module router. A nil registry (tests) skips the
// watermill prometheus middleware.
func NewQueueRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	helpers utils.Helpers,
	tracer trace.Tracer,
	registry *prometheus.Registry,
) *QueueRouter {
	var metricsBuilder *wmmetrics.PrometheusMetricsBuilder
	if registry != nil {
		builder := wmmetrics.NewPrometheusMetricsBuilder(registry, "", "")
		metricsBuilder = &builder
	}
	return &QueueRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		helpers:        helpers,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

// Configure registers the queue handlers on the router.
func (r *QueueRouter) Configure(ctx context.Context, service queueservice.Service) error {
	if r.metricsBuilder != nil {
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}
	handlers := queuehandlers.NewQueueHandlers(service, r.logger, r.tracer)

	registerHandler(r, queueevents.JoinRequestedV1, handlers.HandleJoinRequest)
	registerHandler(r, queueevents.LeaveRequestedV1, handlers.HandleLeaveRequest)
	registerHandler(r, queueevents.StatusRequestedV1, handlers.HandleStatusRequest)
	return nil
}

// registerHandler registers a typed transformation handler. Result messages
// carry their own destination topic, so the publish topic stays empty.
func registerHandler[T any](
	r *QueueRouter,
	topic string,
	handler func(context.Context, *T) ([]utils.Result, error),
) {
	handlerName := "queue." + topic
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
func (r *QueueRouter) Close() error {
	return r.Router.Close()
}
