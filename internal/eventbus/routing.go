package eventbus

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/circuit-league/matchmaker/app/shared/utils"
)

// RoutingPublisher publishes each message to the topic recorded in its
// metadata, falling back to the publish topic it was called with. Routers
// register handlers with an empty publish topic and let each result message
// name its own destination.
type RoutingPublisher struct {
	inner message.Publisher
}

func NewRoutingPublisher(inner message.Publisher) *RoutingPublisher {
	return &RoutingPublisher{inner: inner}
}

var _ message.Publisher = (*RoutingPublisher)(nil)

func (p *RoutingPublisher) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		dest := utils.PublishTopic(msg)
		if dest == "" {
			dest = topic
		}
		if dest == "" {
			return fmt.Errorf("message %s has no destination topic", msg.UUID)
		}
		if err := p.inner.Publish(dest, msg); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the wrapped publisher.
func (p *RoutingPublisher) Close() error {
	return p.inner.Close()
}
