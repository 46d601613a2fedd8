// Package realtime fans out match log and match record changes to
// connected clients.
package realtime

import (
	"context"
	"sync"

	"github.com/mauv0809/rivalry/internal/chat"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/metrics"
)

// EventType discriminates realtime events.
type EventType string

const (
	EventMessageCreated EventType = "message.created"
	EventMessageUpdated EventType = "message.updated"
	EventMatchUpdated   EventType = "match.updated"
)

// Event is one change pushed to subscribers. Message is set for message
// events, Match for match events.
type Event struct {
	Type    EventType     `json:"type" msgpack:"type"`
	MatchID string        `json:"match_id" msgpack:"match_id"`
	Message *chat.Message `json:"message,omitempty" msgpack:"message"`
	Match   *match.Match  `json:"match,omitempty" msgpack:"match"`
}

// Publisher delivers events to every subscriber of a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, ev Event) error
}

// Hub is an in-process Publisher with per-topic subscriptions.
type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[*Subscription]struct{}
	total   int
	buffer  int
	metrics metrics.Metrics
}

// Subscription is a single open listener. It must be closed when the
// listener goes away.
type Subscription struct {
	hub    *Hub
	topic  string
	events chan Event
	once   sync.Once
}

// Envelope is the wire form of an event crossing instances.
type Envelope struct {
	Topic string `msgpack:"topic"`
	Event Event  `msgpack:"event"`
}

// MatchTopic is the topic carrying one match's log and record changes.
func MatchTopic(matchID string) string {
	return "match:" + matchID
}
