package realtime

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rivalry/internal/metrics"
)

const DefaultBuffer = 32

var _ Publisher = (*Hub)(nil)

// NewHub creates a Hub whose subscriptions buffer up to buffer events.
func NewHub(m metrics.Metrics, buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		topics:  make(map[string]map[*Subscription]struct{}),
		buffer:  buffer,
		metrics: m,
	}
}

// Subscribe opens a subscription on topic.
func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		hub:    h,
		topic:  topic,
		events: make(chan Event, h.buffer),
	}

	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	h.total++
	total := h.total
	h.mu.Unlock()

	h.metrics.SetRealtimeSubscribers(total)
	log.Debug("Realtime subscription opened", "topic", topic, "subscribers", total)
	return sub
}

// Publish never blocks: a subscriber whose buffer is full misses the event
// and must reload to catch up.
func (h *Hub) Publish(ctx context.Context, topic string, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[topic] {
		select {
		case sub.events <- ev:
		default:
			h.metrics.IncRealtimeDropped()
			log.Warn("Dropping realtime event for slow subscriber", "topic", topic, "type", ev.Type)
		}
	}
	return nil
}

// Subscribers returns the number of open subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	subs := h.topics[sub.topic]
	if _, ok := subs[sub]; ok {
		delete(subs, sub)
		h.total--
		if len(subs) == 0 {
			delete(h.topics, sub.topic)
		}
	}
	close(sub.events)
	total := h.total
	h.mu.Unlock()

	h.metrics.SetRealtimeSubscribers(total)
	log.Debug("Realtime subscription closed", "topic", sub.topic, "subscribers", total)
}

// Events is closed once the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Topic() string {
	return s.topic
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}
