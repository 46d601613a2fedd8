package realtime

import (
	"context"
	"fmt"

	"github.com/mauv0809/rivalry/internal/pubsub"
)

// PubSubPublisher publishes events to a Pub/Sub topic so every instance
// can re-deliver them to its own Hub.
type PubSubPublisher struct {
	client pubsub.PubSubClient
	topic  pubsub.EventType
}

var _ Publisher = (*PubSubPublisher)(nil)

func NewPubSubPublisher(client pubsub.PubSubClient, topic pubsub.EventType) *PubSubPublisher {
	if topic == "" {
		topic = pubsub.EventMessageCreated
	}
	return &PubSubPublisher{client: client, topic: topic}
}

func (p *PubSubPublisher) Publish(ctx context.Context, topic string, ev Event) error {
	if err := p.client.SendMessage(ctx, p.topic, Envelope{Topic: topic, Event: ev}); err != nil {
		return fmt.Errorf("failed to publish realtime event: %w", err)
	}
	return nil
}

// Relay decodes an envelope received from Pub/Sub and delivers it to the
// local Hub.
func (h *Hub) Relay(ctx context.Context, client pubsub.PubSubClient, raw []byte) (*Envelope, error) {
	var env Envelope
	if err := client.ProcessMessage(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode realtime envelope: %w", err)
	}
	if env.Topic == "" {
		return nil, fmt.Errorf("realtime envelope has no topic")
	}
	return &env, h.Publish(ctx, env.Topic, env.Event)
}
