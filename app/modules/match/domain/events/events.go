// Package matchevents defines the match module's bus topics and payloads.
package matchevents

import (
	"time"

	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// Stream groups every match subject under one JetStream stream.
const Stream = "match"

const (
	FormedV1                 = "match.formed.v1"
	ScoreReportRequestedV1   = "match.score.report.requested.v1"
	ScoreReportedV1          = "match.score.reported.v1"
	ScoreReportFailedV1      = "match.score.report.failed.v1"
	ResolvedV1               = "match.resolved.v1"
	CancelRequestedV1        = "match.cancel.requested.v1"
	CancelledV1              = "match.cancelled.v1"
	ReconciliationRequiredV1 = "match.reconciliation.required.v1"
)

// Score report failure reasons surfaced to the frontend.
const (
	ReasonMatchNotFound   = "MATCH_NOT_FOUND"
	ReasonInvalidTeam     = "INVALID_TEAM"
	ReasonDuplicateReport = "DUPLICATE_REPORT"
	ReasonNotAwaiting     = "NOT_AWAITING_SCORE"
)

// Cancellation reasons recorded on the match row.
const (
	CancelReasonNotification = "notification_failed"
	CancelReasonDeadline     = "report_deadline_passed"
	CancelReasonManual       = "manual"
)

type FormedPayloadV1 struct {
	MatchID        sharedtypes.MatchID  `json:"match_id"`
	Region         sharedtypes.Region   `json:"region"`
	TeamOne        []sharedtypes.UserID `json:"team_one"`
	TeamTwo        []sharedtypes.UserID `json:"team_two"`
	ThreadID       string               `json:"thread_id,omitempty"`
	ReportDeadline time.Time            `json:"report_deadline"`
}

type ScoreReportRequestedPayloadV1 struct {
	MatchID sharedtypes.MatchID    `json:"match_id"`
	UserID  sharedtypes.UserID     `json:"user_id"`
	Team    sharedtypes.TeamNumber `json:"team"`
	Score   int                    `json:"score"`
}

type ScoreReportedPayloadV1 struct {
	MatchID  sharedtypes.MatchID    `json:"match_id"`
	Team     sharedtypes.TeamNumber `json:"team"`
	Score    int                    `json:"score"`
	Complete bool                   `json:"complete"`
}

type ScoreReportFailedPayloadV1 struct {
	MatchID sharedtypes.MatchID    `json:"match_id"`
	Team    sharedtypes.TeamNumber `json:"team,omitempty"`
	Reason  string                 `json:"reason"`
}

type RatingChangeV1 struct {
	UserID sharedtypes.UserID `json:"user_id"`
	Delta  sharedtypes.Rating `json:"delta"`
	Won    bool               `json:"won"`
}

type ResolvedPayloadV1 struct {
	MatchID sharedtypes.MatchID    `json:"match_id"`
	Region  sharedtypes.Region     `json:"region"`
	Winner  sharedtypes.TeamNumber `json:"winner"`
	Scores  map[string]int         `json:"scores"`
	Changes []RatingChangeV1       `json:"changes"`
}

type CancelRequestedPayloadV1 struct {
	MatchID sharedtypes.MatchID `json:"match_id"`
	Reason  string              `json:"reason,omitempty"`
}

type CancelledPayloadV1 struct {
	MatchID sharedtypes.MatchID  `json:"match_id"`
	Region  sharedtypes.Region   `json:"region"`
	Reason  string               `json:"reason"`
	Players []sharedtypes.UserID `json:"players"`
}

type ReconciliationRequiredPayloadV1 struct {
	MatchID  sharedtypes.MatchID `json:"match_id"`
	Region   sharedtypes.Region  `json:"region"`
	Scores   map[string]int      `json:"scores"`
	Attempts int                 `json:"attempts"`
}
