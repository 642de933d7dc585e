package queuehandlers

import (
	"context"

	queueevents "github.com/circuit-league/matchmaker/app/modules/queue/domain/events"
	"github.com/circuit-league/matchmaker/app/shared/utils"
)

// Handlers consumes queue command topics and emits result topics.
type Handlers interface {
	HandleJoinRequest(ctx context.Context, payload *queueevents.JoinRequestedPayloadV1) ([]utils.Result, error)
	HandleLeaveRequest(ctx context.Context, payload *queueevents.LeaveRequestedPayloadV1) ([]utils.Result, error)
	HandleStatusRequest(ctx context.Context, payload *queueevents.StatusRequestedPayloadV1) ([]utils.Result, error)
}
