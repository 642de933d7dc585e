package userservice

import (
	"context"

	userevents "github.com/circuit-league/matchmaker/app/modules/user/domain/events"
	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
	"github.com/circuit-league/matchmaker/app/shared/results"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// UserOperationResult is the success/failure envelope for user operations.
type UserOperationResult = results.OperationResult[userdb.User, userevents.GetUserFailedPayloadV1]

// Service is the user module's application contract.
type Service interface {
	GetUser(ctx context.Context, userID sharedtypes.UserID) (UserOperationResult, error)
	UpdateRegion(ctx context.Context, userID sharedtypes.UserID, region sharedtypes.Region) (UserOperationResult, error)
	LinkRoblox(ctx context.Context, userID sharedtypes.UserID, robloxID int64) (UserOperationResult, error)
	SetBlacklisted(ctx context.Context, userID sharedtypes.UserID, blacklisted bool) error
}
