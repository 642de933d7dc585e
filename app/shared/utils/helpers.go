// Package utils holds the message helpers shared by every module's handler
// layer: payload (un)marshalling and result-message construction.
package utils

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
)

// TopicMetadataKey is where result messages record their destination topic.
// Routers publish returned messages to whatever this key resolves to.
const TopicMetadataKey = "topic"

// Helpers is the contract the handler wrappers depend on.
type Helpers interface {
	UnmarshalPayload(msg *message.Message, target any) error
	CreateResultMessage(original *message.Message, payload any, topic string) (*message.Message, error)
}

type helpers struct {
	logger *slog.Logger
}

// NewHelpers returns the production Helpers implementation.
func NewHelpers(logger *slog.Logger) Helpers {
	return &helpers{logger: logger}
}

// UnmarshalPayload decodes a message body into target.
func (h *helpers) UnmarshalPayload(msg *message.Message, target any) error {
	if err := json.Unmarshal(msg.Payload, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload into %T: %w", target, err)
	}
	return nil
}

// CreateResultMessage marshals payload into a new message destined for topic,
// carrying over the correlation id from the originating message.
func (h *helpers) CreateResultMessage(original *message.Message, payload any, topic string) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T payload: %w", payload, err)
	}

	msg := message.NewMessage(uuid.New().String(), body)
	msg.Metadata.Set(TopicMetadataKey, topic)
	if original != nil {
		correlationID := middleware.MessageCorrelationID(original)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		middleware.SetCorrelationID(correlationID, msg)
		msg.SetContext(original.Context())
	}
	return msg, nil
}

// PublishTopic resolves the destination topic recorded on a result message.
func PublishTopic(msg *message.Message) string {
	return msg.Metadata.Get(TopicMetadataKey)
}
