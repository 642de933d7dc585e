package matchhandlers

import (
	"context"

	matchevents "github.com/circuit-league/matchmaker/app/modules/match/domain/events"
	"github.com/circuit-league/matchmaker/app/shared/utils"
)

// Handlers consumes match command topics and emits result topics.
type Handlers interface {
	HandleScoreReportRequest(ctx context.Context, payload *matchevents.ScoreReportRequestedPayloadV1) ([]utils.Result, error)
	HandleCancelRequest(ctx context.Context, payload *matchevents.CancelRequestedPayloadV1) ([]utils.Result, error)
}
