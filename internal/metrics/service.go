package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		ChallengesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rivalry_challenges_sent_total",
			Help: "The total number of challenges sent or reactivated.",
		}),
		ProposalsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rivalry_proposals_sent_total",
			Help: "The total number of match proposals appended to chats.",
		}),
		ProposalResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rivalry_proposal_responses_total",
			Help: "Proposal responses by resulting status.",
		}, []string{"status"}),
		StaleRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rivalry_stale_rejections_total",
			Help: "Operations rejected because stored state had moved on.",
		}, []string{"operation"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rivalry_notifications_sent_total",
			Help: "Notifications successfully delivered, by channel.",
		}, []string{"channel"}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rivalry_notifications_failed_total",
			Help: "Notifications that failed to deliver, by channel.",
		}, []string{"channel"}),
		RealtimeSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rivalry_realtime_subscribers",
			Help: "Open realtime subscriptions.",
		}),
		RealtimeDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rivalry_realtime_dropped_total",
			Help: "Realtime events dropped because a subscriber was too slow.",
		}),
		RatingTriggers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rivalry_rating_triggers_total",
			Help: "Rating updates triggered by finished matches.",
		}),
		RatingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rivalry_rating_update_duration_seconds",
			Help:    "The duration of individual rating updates.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rivalry_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.ChallengesSent,
		s.ProposalsSent,
		s.ProposalResponses,
		s.StaleRejections,
		s.NotificationsSent,
		s.NotificationsFailed,
		s.RealtimeSubscribers,
		s.RealtimeDropped,
		s.RatingTriggers,
		s.RatingDuration,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncChallengesSent() {
	s.ChallengesSent.Inc()
}

func (s *Service) IncProposalsSent() {
	s.ProposalsSent.Inc()
}

func (s *Service) IncProposalResponses(status string) {
	s.ProposalResponses.WithLabelValues(status).Inc()
}

func (s *Service) IncStaleRejections(operation string) {
	s.StaleRejections.WithLabelValues(operation).Inc()
}

func (s *Service) IncNotificationsSent(channel string) {
	s.NotificationsSent.WithLabelValues(channel).Inc()
}

func (s *Service) IncNotificationsFailed(channel string) {
	s.NotificationsFailed.WithLabelValues(channel).Inc()
}

func (s *Service) SetRealtimeSubscribers(count int) {
	s.RealtimeSubscribers.Set(float64(count))
}

func (s *Service) IncRealtimeDropped() {
	s.RealtimeDropped.Inc()
}

func (s *Service) IncRatingTriggers() {
	s.RatingTriggers.Inc()
}

func (s *Service) ObserveRatingDuration(seconds float64) {
	s.RatingDuration.Observe(seconds)
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
