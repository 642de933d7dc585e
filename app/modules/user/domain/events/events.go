// Package userevents defines the user module's bus topics and payloads.
package userevents

import (
	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// Stream groups every user subject under one JetStream stream.
const Stream = "user"

const (
	GetUserRequestedV1       = "user.get.requested.v1"
	GetUserResponseV1        = "user.get.response.v1"
	GetUserFailedV1          = "user.get.failed.v1"
	UpdateRegionRequestedV1  = "user.region.update.requested.v1"
	UpdateRegionUpdatedV1    = "user.region.updated.v1"
	UpdateRegionFailedV1     = "user.region.update.failed.v1"
	LinkRobloxRequestedV1    = "user.roblox.link.requested.v1"
	LinkRobloxLinkedV1       = "user.roblox.linked.v1"
	LinkRobloxFailedV1       = "user.roblox.link.failed.v1"
	RatingAppliedV1          = "user.rating.applied.v1"
)

type GetUserRequestedPayloadV1 struct {
	UserID sharedtypes.UserID `json:"user_id"`
}

type GetUserResponsePayloadV1 struct {
	User *userdb.User `json:"user"`
}

type GetUserFailedPayloadV1 struct {
	UserID sharedtypes.UserID `json:"user_id"`
	Reason string             `json:"reason"`
}

type UpdateRegionRequestedPayloadV1 struct {
	UserID sharedtypes.UserID `json:"user_id"`
	Region sharedtypes.Region `json:"region"`
}

type UpdateRegionUpdatedPayloadV1 struct {
	UserID sharedtypes.UserID `json:"user_id"`
	Region sharedtypes.Region `json:"region"`
}

type UpdateRegionFailedPayloadV1 struct {
	UserID sharedtypes.UserID `json:"user_id"`
	Reason string             `json:"reason"`
}

type LinkRobloxRequestedPayloadV1 struct {
	UserID   sharedtypes.UserID `json:"user_id"`
	RobloxID int64              `json:"roblox_id"`
}

type LinkRobloxLinkedPayloadV1 struct {
	UserID   sharedtypes.UserID `json:"user_id"`
	RobloxID int64              `json:"roblox_id"`
}

type LinkRobloxFailedPayloadV1 struct {
	UserID sharedtypes.UserID `json:"user_id"`
	Reason string             `json:"reason"`
}

// RatingAppliedPayloadV1 is published by the match module once a resolution's
// rating writes land, one message per match.
type RatingAppliedPayloadV1 struct {
	MatchID sharedtypes.MatchID   `json:"match_id"`
	Changes []userdb.RatingChange `json:"changes"`
}
