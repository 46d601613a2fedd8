package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	ChallengesSent      prometheus.Counter
	ProposalsSent       prometheus.Counter
	ProposalResponses   *prometheus.CounterVec
	StaleRejections     *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	RealtimeSubscribers prometheus.Gauge
	RealtimeDropped     prometheus.Counter
	RatingTriggers      prometheus.Counter
	RatingDuration      prometheus.Histogram
	StartupTimeSeconds  prometheus.Gauge
}
