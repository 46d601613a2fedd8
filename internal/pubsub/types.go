package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType names the topic a message is published to.
type EventType string

const (
	EventMessageCreated EventType = "match-message-created"
	EventMatchUpdated   EventType = "match-updated"
)

// PushRequest is the body Pub/Sub POSTs to a push subscription endpoint.
type PushRequest struct {
	Subscription string `json:"subscription"`
	Message      struct {
		ID   string `json:"messageId"`
		Data string `json:"data"` // base64-encoded MessagePack
	} `json:"message"`
}
