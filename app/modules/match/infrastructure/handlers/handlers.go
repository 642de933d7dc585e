// Package matchhandlers adapts match command messages to the lifecycle
// manager.
package matchhandlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	matchservice "github.com/circuit-league/matchmaker/app/modules/match/application"
	matchevents "github.com/circuit-league/matchmaker/app/modules/match/domain/events"
	matchdb "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/repositories"
	"github.com/circuit-league/matchmaker/app/shared/utils"
)

// MatchHandlers is the match module's message handler set.
type MatchHandlers struct {
	service matchservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewMatchHandlers builds the handler set.
func NewMatchHandlers(service matchservice.Service, logger *slog.Logger, tracer trace.Tracer) Handlers {
	return &MatchHandlers{service: service, logger: logger, tracer: tracer}
}

// HandleScoreReportRequest records a team's score, answering score.reported
// or score.report.failed.
func (h *MatchHandlers) HandleScoreReportRequest(ctx context.Context, payload *matchevents.ScoreReportRequestedPayloadV1) ([]utils.Result, error) {
	result, err := h.service.ReportScore(ctx, payload.MatchID, payload.Team, payload.Score)
	if err != nil {
		return nil, fmt.Errorf("HandleScoreReportRequest: %w", err)
	}
	if result.IsFailure() {
		return []utils.Result{{Topic: matchevents.ScoreReportFailedV1, Payload: result.Failure}}, nil
	}
	return []utils.Result{{Topic: matchevents.ScoreReportedV1, Payload: result.Success}}, nil
}

// HandleCancelRequest cancels a non-terminal match. Cancelling a finished or
// unknown match answers a failure topic rather than erroring the message.
func (h *MatchHandlers) HandleCancelRequest(ctx context.Context, payload *matchevents.CancelRequestedPayloadV1) ([]utils.Result, error) {
	_, err := h.service.Cancel(ctx, payload.MatchID, payload.Reason)
	switch {
	case errors.Is(err, matchdb.ErrMatchNotFound):
		return []utils.Result{{Topic: matchevents.ScoreReportFailedV1, Payload: matchevents.ScoreReportFailedPayloadV1{
			MatchID: payload.MatchID,
			Reason:  matchevents.ReasonMatchNotFound,
		}}}, nil
	case errors.Is(err, matchdb.ErrAlreadyResolved):
		return []utils.Result{{Topic: matchevents.ScoreReportFailedV1, Payload: matchevents.ScoreReportFailedPayloadV1{
			MatchID: payload.MatchID,
			Reason:  matchevents.ReasonNotAwaiting,
		}}}, nil
	case err != nil:
		return nil, fmt.Errorf("HandleCancelRequest: %w", err)
	}
	// The service publishes cancelled itself; nothing more to emit here.
	return nil, nil
}
