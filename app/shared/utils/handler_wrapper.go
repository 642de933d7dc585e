package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/trace"

	"github.com/circuit-league/matchmaker/app/shared/attr"
)

// Result pairs an outgoing payload with the topic it should be published on.
type Result struct {
	Topic   string
	Payload any
}

// WrapHandler adapts a typed transformation handler to watermill's handler
// signature: decode the payload, run the handler under a span with the
// correlation id on the context, and turn every Result into a message
// carrying its destination topic in metadata.
func WrapHandler[T any](
	name string,
	logger *slog.Logger,
	tracer trace.Tracer,
	helpers Helpers,
	handler func(ctx context.Context, payload *T) ([]Result, error),
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx, span := tracer.Start(msg.Context(), name)
		defer span.End()
		ctx = attr.WithCorrelationID(ctx, middleware.MessageCorrelationID(msg))

		payload := new(T)
		if err := helpers.UnmarshalPayload(msg, payload); err != nil {
			logger.ErrorContext(ctx, "Failed to unmarshal payload",
				attr.String("handler", name),
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			return nil, err
		}

		start := time.Now()
		outputs, err := handler(ctx, payload)
		if err != nil {
			logger.ErrorContext(ctx, "Handler failed",
				attr.String("handler", name),
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			return nil, err
		}

		messages := make([]*message.Message, 0, len(outputs))
		for _, output := range outputs {
			result, err := helpers.CreateResultMessage(msg, output.Payload, output.Topic)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			messages = append(messages, result)
		}

		logger.InfoContext(ctx, "Handler completed",
			attr.String("handler", name),
			attr.CorrelationIDFromMsg(msg),
			attr.Duration("took", time.Since(start)),
			attr.Int("results", len(messages)),
		)
		return messages, nil
	}
}
