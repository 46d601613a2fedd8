package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncChallengesSent()
	IncProposalsSent()
	IncProposalResponses(status string)
	IncStaleRejections(operation string)
	IncNotificationsSent(channel string)
	IncNotificationsFailed(channel string)
	SetRealtimeSubscribers(count int)
	IncRealtimeDropped()
	IncRatingTriggers()
	ObserveRatingDuration(seconds float64)
	SetStartupTime(duration float64)
}
