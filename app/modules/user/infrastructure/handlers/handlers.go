// Package userhandlers adapts user command messages to the user service.
package userhandlers

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	userservice "github.com/circuit-league/matchmaker/app/modules/user/application"
	userevents "github.com/circuit-league/matchmaker/app/modules/user/domain/events"
	"github.com/circuit-league/matchmaker/app/shared/utils"
)

// UserHandlers is the user module's message handler set.
type UserHandlers struct {
	service userservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewUserHandlers builds the handler set.
func NewUserHandlers(service userservice.Service, logger *slog.Logger, tracer trace.Tracer) Handlers {
	return &UserHandlers{service: service, logger: logger, tracer: tracer}
}

// HandleGetUserRequest answers with the user's record or get.failed.
func (h *UserHandlers) HandleGetUserRequest(ctx context.Context, payload *userevents.GetUserRequestedPayloadV1) ([]utils.Result, error) {
	result, err := h.service.GetUser(ctx, payload.UserID)
	if err != nil {
		return nil, fmt.Errorf("HandleGetUserRequest: %w", err)
	}
	if result.IsFailure() {
		return []utils.Result{{Topic: userevents.GetUserFailedV1, Payload: result.Failure}}, nil
	}
	return []utils.Result{{Topic: userevents.GetUserResponseV1, Payload: userevents.GetUserResponsePayloadV1{
		User: result.Success,
	}}}, nil
}

// HandleUpdateRegionRequest saves the player's preferred region.
func (h *UserHandlers) HandleUpdateRegionRequest(ctx context.Context, payload *userevents.UpdateRegionRequestedPayloadV1) ([]utils.Result, error) {
	result, err := h.service.UpdateRegion(ctx, payload.UserID, payload.Region)
	if err != nil {
		return nil, fmt.Errorf("HandleUpdateRegionRequest: %w", err)
	}
	if result.IsFailure() {
		return []utils.Result{{Topic: userevents.UpdateRegionFailedV1, Payload: userevents.UpdateRegionFailedPayloadV1{
			UserID: payload.UserID,
			Reason: result.Failure.Reason,
		}}}, nil
	}
	return []utils.Result{{Topic: userevents.UpdateRegionUpdatedV1, Payload: userevents.UpdateRegionUpdatedPayloadV1{
		UserID: payload.UserID,
		Region: payload.Region,
	}}}, nil
}

// HandleLinkRobloxRequest stores the player's linked external account.
func (h *UserHandlers) HandleLinkRobloxRequest(ctx context.Context, payload *userevents.LinkRobloxRequestedPayloadV1) ([]utils.Result, error) {
	result, err := h.service.LinkRoblox(ctx, payload.UserID, payload.RobloxID)
	if err != nil {
		return nil, fmt.Errorf("HandleLinkRobloxRequest: %w", err)
	}
	if result.IsFailure() {
		return []utils.Result{{Topic: userevents.LinkRobloxFailedV1, Payload: userevents.LinkRobloxFailedPayloadV1{
			UserID: payload.UserID,
			Reason: result.Failure.Reason,
		}}}, nil
	}
	return []utils.Result{{Topic: userevents.LinkRobloxLinkedV1, Payload: userevents.LinkRobloxLinkedPayloadV1{
		UserID:   payload.UserID,
		RobloxID: payload.RobloxID,
	}}}, nil
}
