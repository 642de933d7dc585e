// Package userservice owns player records: first-sight creation, settings,
// account linking, and the blacklist flag.
package userservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	userevents "github.com/circuit-league/matchmaker/app/modules/user/domain/events"
	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
	"github.com/circuit-league/matchmaker/app/shared/attr"
	"github.com/circuit-league/matchmaker/app/shared/results"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// UserService implements the Service interface.
type UserService struct {
	repo   userdb.Repository
	logger *slog.Logger
	tracer trace.Tracer
}

// NewUserService creates a new UserService.
func NewUserService(repo userdb.Repository, logger *slog.Logger, tracer trace.Tracer) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
		tracer: tracer,
	}
}

var _ Service = (*UserService)(nil)

// GetUser loads a player record, creating the default one on first sight.
func (s *UserService) GetUser(ctx context.Context, userID sharedtypes.UserID) (UserOperationResult, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.GetUser")
	defer span.End()

	user, err := s.repo.GetOrCreateUser(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get or create user",
			attr.ExtractCorrelationID(ctx),
			attr.UserID("user_id", userID),
			attr.Error(err),
		)
		return UserOperationResult{}, fmt.Errorf("GetUser: %w", err)
	}

	return results.Success[userdb.User, userevents.GetUserFailedPayloadV1](*user), nil
}

// UpdateRegion changes the player's preferred queue region.
func (s *UserService) UpdateRegion(ctx context.Context, userID sharedtypes.UserID, region sharedtypes.Region) (UserOperationResult, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.UpdateRegion")
	defer span.End()

	if !region.IsValid() {
		return results.Failure[userdb.User, userevents.GetUserFailedPayloadV1](userevents.GetUserFailedPayloadV1{
			UserID: userID,
			Reason: fmt.Sprintf("unknown region %q", region),
		}), nil
	}

	user, err := s.repo.GetOrCreateUser(ctx, userID)
	if err != nil {
		return UserOperationResult{}, fmt.Errorf("UpdateRegion: %w", err)
	}

	settings := user.Settings
	settings.Region = region
	if err := s.repo.UpdateSettings(ctx, userID, settings); err != nil {
		return UserOperationResult{}, fmt.Errorf("UpdateRegion: %w", err)
	}

	s.logger.InfoContext(ctx, "Region preference updated",
		attr.ExtractCorrelationID(ctx),
		attr.UserID("user_id", userID),
		attr.Region("region", region),
	)

	user.Settings = settings
	return results.Success[userdb.User, userevents.GetUserFailedPayloadV1](*user), nil
}

// LinkRoblox stores the player's linked external account.
func (s *UserService) LinkRoblox(ctx context.Context, userID sharedtypes.UserID, robloxID int64) (UserOperationResult, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.LinkRoblox")
	defer span.End()

	if robloxID <= 0 {
		return results.Failure[userdb.User, userevents.GetUserFailedPayloadV1](userevents.GetUserFailedPayloadV1{
			UserID: userID,
			Reason: "invalid roblox id",
		}), nil
	}

	if _, err := s.repo.GetOrCreateUser(ctx, userID); err != nil {
		return UserOperationResult{}, fmt.Errorf("LinkRoblox: %w", err)
	}
	if err := s.repo.LinkRoblox(ctx, userID, robloxID); err != nil {
		return UserOperationResult{}, fmt.Errorf("LinkRoblox: %w", err)
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return UserOperationResult{}, fmt.Errorf("LinkRoblox: %w", err)
	}
	return results.Success[userdb.User, userevents.GetUserFailedPayloadV1](*user), nil
}

// SetBlacklisted flips the moderation flag. Blacklisted players are refused
// at the queue facade; their records stay intact.
func (s *UserService) SetBlacklisted(ctx context.Context, userID sharedtypes.UserID, blacklisted bool) error {
	ctx, span := s.tracer.Start(ctx, "UserService.SetBlacklisted")
	defer span.End()

	err := s.repo.SetBlacklisted(ctx, userID, blacklisted)
	if err != nil && !errors.Is(err, userdb.ErrUserNotFound) {
		return fmt.Errorf("SetBlacklisted: %w", err)
	}
	if errors.Is(err, userdb.ErrUserNotFound) {
		// Create the record so the flag sticks before first interaction.
		if _, cerr := s.repo.GetOrCreateUser(ctx, userID); cerr != nil {
			return fmt.Errorf("SetBlacklisted: %w", cerr)
		}
		if serr := s.repo.SetBlacklisted(ctx, userID, blacklisted); serr != nil {
			return fmt.Errorf("SetBlacklisted: %w", serr)
		}
	}

	s.logger.InfoContext(ctx, "Blacklist flag updated",
		attr.UserID("user_id", userID),
		attr.Bool("blacklisted", blacklisted),
	)
	return nil
}
