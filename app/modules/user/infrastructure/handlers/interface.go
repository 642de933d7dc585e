package userhandlers

import (
	"context"

	userevents "github.com/circuit-league/matchmaker/app/modules/user/domain/events"
	"github.com/circuit-league/matchmaker/app/shared/utils"
)

// Handlers consumes user command topics and emits result topics.
type Handlers interface {
	HandleGetUserRequest(ctx context.Context, payload *userevents.GetUserRequestedPayloadV1) ([]utils.Result, error)
	HandleUpdateRegionRequest(ctx context.Context, payload *userevents.UpdateRegionRequestedPayloadV1) ([]utils.Result, error)
	HandleLinkRobloxRequest(ctx context.Context, payload *userevents.LinkRobloxRequestedPayloadV1) ([]utils.Result, error)
}
