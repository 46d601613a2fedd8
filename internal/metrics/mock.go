package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	challengesSent      int
	proposalsSent       int
	proposalResponses   map[string]int
	staleRejections     map[string]int
	notificationsSent   map[string]int
	notificationsFailed map[string]int
	realtimeSubscribers int
	realtimeDropped     int
	ratingTriggers      int
	ratingDurations     []float64
	startupTime         float64
}

var _ Metrics = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		proposalResponses:   make(map[string]int),
		staleRejections:     make(map[string]int),
		notificationsSent:   make(map[string]int),
		notificationsFailed: make(map[string]int),
	}
}

func (m *Mock) IncChallengesSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challengesSent++
}

func (m *Mock) IncProposalsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proposalsSent++
}

func (m *Mock) IncProposalResponses(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proposalResponses[status]++
}

func (m *Mock) IncStaleRejections(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staleRejections[operation]++
}

func (m *Mock) IncNotificationsSent(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notificationsSent[channel]++
}

func (m *Mock) IncNotificationsFailed(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notificationsFailed[channel]++
}

func (m *Mock) SetRealtimeSubscribers(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.realtimeSubscribers = count
}

func (m *Mock) IncRealtimeDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.realtimeDropped++
}

func (m *Mock) IncRatingTriggers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratingTriggers++
}

func (m *Mock) ObserveRatingDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratingDurations = append(m.ratingDurations, seconds)
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// ChallengesSent returns the number of times IncChallengesSent was called.
func (m *Mock) ChallengesSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.challengesSent
}

// ProposalsSent returns the number of times IncProposalsSent was called.
func (m *Mock) ProposalsSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proposalsSent
}

// ProposalResponses returns the responses recorded for a status.
func (m *Mock) ProposalResponses(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proposalResponses[status]
}

// StaleRejections returns the stale rejections recorded for an operation.
func (m *Mock) StaleRejections(operation string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.staleRejections[operation]
}

// NotificationsSent returns the deliveries recorded for a channel.
func (m *Mock) NotificationsSent(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notificationsSent[channel]
}

// NotificationsFailed returns the failures recorded for a channel.
func (m *Mock) NotificationsFailed(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notificationsFailed[channel]
}

// RealtimeSubscribers returns the last subscriber count set.
func (m *Mock) RealtimeSubscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.realtimeSubscribers
}

// RealtimeDropped returns the number of dropped realtime events.
func (m *Mock) RealtimeDropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.realtimeDropped
}

// RatingTriggers returns the number of times IncRatingTriggers was called.
func (m *Mock) RatingTriggers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ratingTriggers
}
