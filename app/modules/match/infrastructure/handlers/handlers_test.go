package matchhandlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	matchservice "github.com/circuit-league/matchmaker/app/modules/match/application"
	matchevents "github.com/circuit-league/matchmaker/app/modules/match/domain/events"
	matchdb "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/repositories"
	queuedomain "github.com/circuit-league/matchmaker/app/modules/queue/domain"
	"github.com/circuit-league/matchmaker/app/shared/results"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
	"github.com/circuit-league/matchmaker/internal/observability"
)

type fakeMatchService struct {
	reportResult matchservice.ReportResult
	reportErr    error
	cancelErr    error
}

var _ matchservice.Service = (*fakeMatchService)(nil)

func (f *fakeMatchService) CreateFromPairing(context.Context, sharedtypes.Region, []*queuedomain.Entry, []*queuedomain.Entry) error {
	return nil
}

func (f *fakeMatchService) ReportScore(context.Context, sharedtypes.MatchID, sharedtypes.TeamNumber, int) (matchservice.ReportResult, error) {
	return f.reportResult, f.reportErr
}

func (f *fakeMatchService) Cancel(context.Context, sharedtypes.MatchID, string) (matchevents.CancelledPayloadV1, error) {
	return matchevents.CancelledPayloadV1{}, f.cancelErr
}

func (f *fakeMatchService) ListActiveMatches(context.Context, sharedtypes.Region) ([]matchdb.Match, error) {
	return nil, nil
}

func newHandlers(service matchservice.Service) Handlers {
	return NewMatchHandlers(service, observability.NoOpLogger, noop.NewTracerProvider().Tracer("test"))
}

func TestHandleScoreReportRequest_Success(t *testing.T) {
	service := &fakeMatchService{
		reportResult: results.Success[matchevents.ScoreReportedPayloadV1, matchevents.ScoreReportFailedPayloadV1](matchevents.ScoreReportedPayloadV1{
			MatchID: 1, Team: sharedtypes.TeamOne, Complete: false,
		}),
	}

	out, err := newHandlers(service).HandleScoreReportRequest(context.Background(), &matchevents.ScoreReportRequestedPayloadV1{MatchID: 1, Team: sharedtypes.TeamOne, Score: 3})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, matchevents.ScoreReportedV1, out[0].Topic)
}

func TestHandleScoreReportRequest_Failure(t *testing.T) {
	service := &fakeMatchService{
		reportResult: results.Failure[matchevents.ScoreReportedPayloadV1, matchevents.ScoreReportFailedPayloadV1](matchevents.ScoreReportFailedPayloadV1{
			MatchID: 1, Reason: matchevents.ReasonDuplicateReport,
		}),
	}

	out, err := newHandlers(service).HandleScoreReportRequest(context.Background(), &matchevents.ScoreReportRequestedPayloadV1{MatchID: 1, Team: sharedtypes.TeamOne, Score: 3})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, matchevents.ScoreReportFailedV1, out[0].Topic)
}

func TestHandleCancelRequest(t *testing.T) {
	tests := []struct {
		name       string
		cancelErr  error
		wantErr    bool
		wantReason string
	}{
		{name: "success emits nothing extra"},
		{name: "unknown match", cancelErr: matchdb.ErrMatchNotFound, wantReason: matchevents.ReasonMatchNotFound},
		{name: "already finished", cancelErr: matchdb.ErrAlreadyResolved, wantReason: matchevents.ReasonNotAwaiting},
		{name: "infra error", cancelErr: errors.New("database unavailable"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &fakeMatchService{cancelErr: tt.cancelErr}
			out, err := newHandlers(service).HandleCancelRequest(context.Background(), &matchevents.CancelRequestedPayloadV1{MatchID: 1})

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantReason == "" {
				assert.Empty(t, out)
				return
			}
			require.Len(t, out, 1)
			payload, ok := out[0].Payload.(matchevents.ScoreReportFailedPayloadV1)
			require.True(t, ok)
			assert.Equal(t, tt.wantReason, payload.Reason)
		})
	}
}
