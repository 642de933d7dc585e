// Package attr provides slog attribute helpers shared by every module, so log
// fields keep the same keys and formatting across services and handlers.
package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

type correlationIDKey struct{}

func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

func Int64(key string, value int64) slog.Attr {
	return slog.Int64(key, value)
}

func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

func Duration(key string, value time.Duration) slog.Attr {
	return slog.Duration(key, value)
}

func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

func UserID(key string, id sharedtypes.UserID) slog.Attr {
	return slog.Int64(key, int64(id))
}

func MatchID(key string, id sharedtypes.MatchID) slog.Attr {
	return slog.Int64(key, int64(id))
}

func Region(key string, r sharedtypes.Region) slog.Attr {
	return slog.String(key, r.String())
}

func Rating(key string, r sharedtypes.Rating) slog.Attr {
	return slog.Int(key, int(r))
}

// CorrelationIDFromMsg pulls the watermill correlation id off a message.
func CorrelationIDFromMsg(msg *message.Message) slog.Attr {
	return slog.String("correlation_id", middleware.MessageCorrelationID(msg))
}

// WithCorrelationID stashes a correlation id on the context so service-layer
// logs can carry it without seeing the message.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// ExtractCorrelationID reads the correlation id previously stored with
// WithCorrelationID. Missing ids log as an empty string rather than omitting
// the field, which keeps log lines greppable.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return slog.String("correlation_id", id)
}
