// Package queueevents defines the queue module's bus topics and payloads.
package queueevents

import (
	"time"

	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// Stream groups every queue subject under one JetStream stream.
const Stream = "queue"

const (
	JoinRequestedV1   = "queue.join.requested.v1"
	JoinedV1          = "queue.joined.v1"
	JoinFailedV1      = "queue.join.failed.v1"
	LeaveRequestedV1  = "queue.leave.requested.v1"
	LeftV1            = "queue.left.v1"
	StatusRequestedV1 = "queue.status.requested.v1"
	StatusResponseV1  = "queue.status.response.v1"
	TimeoutV1         = "queue.timeout.v1"
)

// Join failure reasons surfaced to the frontend.
const (
	ReasonAlreadyQueued = "ALREADY_QUEUED"
	ReasonBlacklisted   = "BLACKLISTED"
	ReasonInMatch       = "IN_MATCH"
	ReasonUnknownRegion = "UNKNOWN_REGION"
)

type JoinRequestedPayloadV1 struct {
	UserID sharedtypes.UserID `json:"user_id"`
	Region sharedtypes.Region `json:"region,omitempty"`
}

type JoinedPayloadV1 struct {
	UserID     sharedtypes.UserID `json:"user_id"`
	Region     sharedtypes.Region `json:"region"`
	Rating     sharedtypes.Rating `json:"rating"`
	Position   int                `json:"position"`
	EnqueuedAt time.Time          `json:"enqueued_at"`
}

type JoinFailedPayloadV1 struct {
	UserID sharedtypes.UserID `json:"user_id"`
	Region sharedtypes.Region `json:"region,omitempty"`
	Reason string             `json:"reason"`
}

type LeaveRequestedPayloadV1 struct {
	UserID sharedtypes.UserID `json:"user_id"`
}

type LeftPayloadV1 struct {
	UserID  sharedtypes.UserID `json:"user_id"`
	Region  sharedtypes.Region `json:"region,omitempty"`
	Removed bool               `json:"removed"`
}

type StatusRequestedPayloadV1 struct {
	UserID sharedtypes.UserID `json:"user_id"`
}

// StatusKind enumerates the facade's status answers.
type StatusKind string

const (
	StatusNotQueued StatusKind = "not_queued"
	StatusQueued    StatusKind = "queued"
	StatusInMatch   StatusKind = "in_match"
)

type StatusResponsePayloadV1 struct {
	UserID   sharedtypes.UserID  `json:"user_id"`
	Kind     StatusKind          `json:"kind"`
	Region   sharedtypes.Region  `json:"region,omitempty"`
	Position int                 `json:"position,omitempty"`
	MatchID  sharedtypes.MatchID `json:"match_id,omitempty"`
}

type TimeoutPayloadV1 struct {
	UserID     sharedtypes.UserID `json:"user_id"`
	Region     sharedtypes.Region `json:"region"`
	EnqueuedAt time.Time          `json:"enqueued_at"`
}
