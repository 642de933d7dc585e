// Package eventbus provides the NATS JetStream event bus shared by all module
// routers: a watermill publisher/subscriber pair plus stream provisioning.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
)

// EventBus wraps the watermill NATS publisher/subscriber and the raw
// JetStream context used for stream provisioning.
type EventBus struct {
	logger     watermill.LoggerAdapter
	conn       *nc.Conn
	js         nc.JetStreamContext
	publisher  *wmnats.Publisher
	subscriber *wmnats.Subscriber
}

// New connects to NATS and builds the JetStream-backed bus.
func New(ctx context.Context, natsURL string, logger *slog.Logger, appID string) (*EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	options := []nc.Option{
		nc.Name(appID),
		nc.RetryOnFailedConnect(true),
		nc.Timeout(30 * time.Second),
		nc.ReconnectWait(1 * time.Second),
		nc.ErrorHandler(func(_ *nc.Conn, s *nc.Subscription, err error) {
			if s != nil {
				wmLogger.Error("Error in subscription", err, watermill.LogFields{
					"subject": s.Subject,
					"queue":   s.Queue,
				})
			} else {
				wmLogger.Error("Error in connection", err, nil)
			}
		}),
	}

	conn, err := nc.Connect(natsURL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	publisher, err := wmnats.NewPublisher(
		wmnats.PublisherConfig{
			URL:         natsURL,
			NatsOptions: options,
			Marshaler:   &wmnats.NATSMarshaler{},
			JetStream: wmnats.JetStreamConfig{
				Disabled:      false,
				AutoProvision: false,
			},
		},
		wmLogger,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create watermill NATS publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(
		wmnats.SubscriberConfig{
			URL:         natsURL,
			NatsOptions: options,
			Unmarshaler: &wmnats.NATSMarshaler{},
			JetStream: wmnats.JetStreamConfig{
				Disabled:      false,
				AutoProvision: false,
			},
		},
		wmLogger,
	)
	if err != nil {
		publisher.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to create watermill NATS subscriber: %w", err)
	}

	return &EventBus{
		logger:     wmLogger,
		conn:       conn,
		js:         js,
		publisher:  publisher,
		subscriber: subscriber,
	}, nil
}

// Publisher exposes the bus for router publish wiring.
func (b *EventBus) Publisher() message.Publisher {
	return b.publisher
}

// Subscriber exposes the bus for router subscribe wiring.
func (b *EventBus) Subscriber() message.Subscriber {
	return b.subscriber
}

// ProvisionStream ensures a stream exists for the given subjects. Existing
// streams are left untouched.
func (b *EventBus) ProvisionStream(name string, subjects []string) error {
	if !isValidStreamName(name) {
		return fmt.Errorf("invalid stream name: %s", name)
	}

	info, err := b.js.StreamInfo(name)
	if err != nil && err != nc.ErrStreamNotFound {
		return fmt.Errorf("failed to get stream info for %s: %w", name, err)
	}
	if info != nil {
		return nil
	}

	if _, err := b.js.AddStream(&nc.StreamConfig{
		Name:      name,
		Subjects:  subjects,
		Retention: nc.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	}); err != nil {
		return fmt.Errorf("failed to add stream %s: %w", name, err)
	}

	b.logger.Info("Stream created", watermill.LogFields{"stream": name})
	return nil
}

// Close tears down the publisher, subscriber, and connection.
func (b *EventBus) Close() error {
	if err := b.publisher.Close(); err != nil {
		return fmt.Errorf("failed to close publisher: %w", err)
	}
	if err := b.subscriber.Close(); err != nil {
		return fmt.Errorf("failed to close subscriber: %w", err)
	}
	b.conn.Close()
	return nil
}

// isValidStreamName checks a stream name against NATS naming rules.
func isValidStreamName(name string) bool {
	for _, r := range name {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
		if !ok {
			return false
		}
	}
	return name != "" && name[0] != '-' && name[len(name)-1] != '-'
}
