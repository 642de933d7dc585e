// Package userrouter wires the user module's handlers onto a watermill
// router.
package userrouter

import (
	"context"
	"log/slog"

	wmmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	userservice "github.com/circuit-league/matchmaker/app/modules/user/application"
	userevents "github.com/circuit-league/matchmaker/app/modules/user/domain/events"
	userhandlers "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/handlers"
	"github.com/circuit-league/matchmaker/app/shared/utils"
)

// UserRouter registers the user module's handlers.
type UserRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     message.Subscriber
	publisher      message.Publisher
	helpers        utils.Helpers
	tracer         trace.Tracer
	metricsBuilder *wmmetrics.PrometheusMetricsBuilder
}

// NewUserRouter builds the module router. A nil registry (tests) skips the
// watermill prometheus middleware.
func NewUserRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	helpers utils.Helpers,
	tracer trace.Tracer,
	registry *prometheus.Registry,
) *UserRouter {
	var metricsBuilder *wmmetrics.PrometheusMetricsBuilder
	if registry != nil {
		builder := wmmetrics.NewPrometheusMetricsBuilder(registry, "", "")
		metricsBuilder = &builder
	}
	return &UserRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		helpers:        helpers,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

// Configure registers the user handlers on the router.
func (r *UserRouter) Configure(ctx context.Context, service userservice.Service) error {
	if r.metricsBuilder != nil {
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}
	handlers := userhandlers.NewUserHandlers(service, r.logger, r.tracer)

	registerHandler(r, userevents.GetUserRequestedV1, handlers.HandleGetUserRequest)
	registerHandler(r, userevents.UpdateRegionRequestedV1, handlers.HandleUpdateRegionRequest)
	registerHandler(r, userevents.LinkRobloxRequestedV1, handlers.HandleLinkRobloxRequest)
	return nil
}

// registerHandler registers a typed transformation handler. Result messages
// carry their own destination topic, so the publish topic stays empty.
func registerHandler[T any](
	r *UserRouter,
	topic string,
	handler func(context.Context, *T) ([]utils.Result, error),
) {
	handlerName := "user." + topic
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
func (r *UserRouter) Close() error {
	return r.Router.Close()
}
