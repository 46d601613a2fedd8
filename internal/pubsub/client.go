package pubsub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

func New(ctx context.Context, projectID string) (PubSubClient, error) {
	pubSubC, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	teardown := func() {
		if err := pubSubC.Close(); err != nil {
			log.Error("Failed to close pubsub client", "error", err)
		}
	}

	return &client{
		client:   pubSubC,
		teardown: teardown,
	}, nil
}

func (c *client) SendMessage(ctx context.Context, topic EventType, data any) error {
	msgpackData, err := msgpack.Marshal(data)
	if err != nil {
		log.Error("MessagePack marshal error", "error", err)
		return err
	}
	message := &pubsub.Message{
		Data: msgpackData,
	}
	result := c.client.Topic(string(topic)).Publish(ctx, message)
	serverID, err := result.Get(ctx)
	if err != nil {
		log.Error("Failed to publish message", "error", err, "topic", topic)
		return err
	}
	log.Debug("SendMessage", "serverID", serverID, "topic", topic)
	return nil
}

func (c *client) ProcessMessage(data []byte, returnValue any) error {
	return decode(data, returnValue)
}

func (c *client) Close() {
	c.teardown()
}

func decode(data []byte, returnValue any) error {
	// Unmarshal the MessagePack data into the provided pointer struct
	err := msgpack.Unmarshal(data, returnValue)
	if err != nil {
		log.Error("MessagePack unmarshal error", "error", err)
		return err
	}
	return nil
}

// DecodePush unwraps a push subscription body into the raw MessagePack payload.
func DecodePush(body []byte) ([]byte, error) {
	var req PushRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("invalid push body: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(req.Message.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 data: %w", err)
	}
	return raw, nil
}

// EncodePush builds a push subscription body around data. Used by tests and
// local tooling that replays messages against the push endpoint.
func EncodePush(subscription string, data any) ([]byte, error) {
	raw, err := msgpack.Marshal(data)
	if err != nil {
		return nil, err
	}
	var req PushRequest
	req.Subscription = subscription
	req.Message.Data = base64.StdEncoding.EncodeToString(raw)
	return json.Marshal(req)
}
