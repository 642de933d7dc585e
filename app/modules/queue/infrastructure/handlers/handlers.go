// Package queuehandlers adapts queue command messages to the queue facade.
package queuehandlers

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	queueservice "github.com/circuit-league/matchmaker/app/modules/queue/application"
	queueevents "github.com/circuit-league/matchmaker/app/modules/queue/domain/events"
	"github.com/circuit-league/matchmaker/app/shared/utils"
)

// QueueHandlers is the queue module's message handler set.
type QueueHandlers struct {
	service queueservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewQueueHandlers builds the handler set.
func NewQueueHandlers(service queueservice.Service, logger *slog.Logger, tracer trace.Tracer) Handlers {
	return &QueueHandlers{service: service, logger: logger, tracer: tracer}
}

// HandleJoinRequest admits the player, answering joined or join.failed.
func (h *QueueHandlers) HandleJoinRequest(ctx context.Context, payload *queueevents.JoinRequestedPayloadV1) ([]utils.Result, error) {
	result, err := h.service.Join(ctx, payload.UserID, payload.Region)
	if err != nil {
		return nil, fmt.Errorf("HandleJoinRequest: %w", err)
	}
	if result.IsFailure() {
		return []utils.Result{{Topic: queueevents.JoinFailedV1, Payload: result.Failure}}, nil
	}
	return []utils.Result{{Topic: queueevents.JoinedV1, Payload: result.Success}}, nil
}

// HandleLeaveRequest removes the player's live entry. Leaving while not
// queued still answers left, with removed=false.
func (h *QueueHandlers) HandleLeaveRequest(ctx context.Context, payload *queueevents.LeaveRequestedPayloadV1) ([]utils.Result, error) {
	left, err := h.service.Leave(ctx, payload.UserID)
	if err != nil {
		return nil, fmt.Errorf("HandleLeaveRequest: %w", err)
	}
	return []utils.Result{{Topic: queueevents.LeftV1, Payload: left}}, nil
}

// HandleStatusRequest answers the player's current standing.
func (h *QueueHandlers) HandleStatusRequest(ctx context.Context, payload *queueevents.StatusRequestedPayloadV1) ([]utils.Result, error) {
	status := h.service.Status(ctx, payload.UserID)
	return []utils.Result{{Topic: queueevents.StatusResponseV1, Payload: status}}, nil
}
