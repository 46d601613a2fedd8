package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/mauv0809/rivalry/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := metrics.NewService(reg)

	svc.IncProposalsSent()
	svc.IncProposalResponses("ACCEPTED")
	svc.IncProposalResponses("ACCEPTED")
	svc.IncStaleRejections("respond_proposal")
	svc.IncNotificationsFailed("slack")
	svc.SetRealtimeSubscribers(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(svc.ProposalsSent))
	assert.Equal(t, 2.0, testutil.ToFloat64(svc.ProposalResponses.WithLabelValues("ACCEPTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.StaleRejections.WithLabelValues("respond_proposal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.NotificationsFailed.WithLabelValues("slack")))
	assert.Equal(t, 3.0, testutil.ToFloat64(svc.RealtimeSubscribers))
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := metrics.NewService(reg)
	svc.IncChallengesSent()

	rr := httptest.NewRecorder()
	metrics.NewMetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "rivalry_challenges_sent_total 1")
}

func TestMock(t *testing.T) {
	m := metrics.NewMock()
	m.IncNotificationsSent("telegram")
	m.IncNotificationsSent("telegram")
	m.IncRealtimeDropped()

	assert.Equal(t, 2, m.NotificationsSent("telegram"))
	assert.Equal(t, 0, m.NotificationsSent("slack"))
	assert.Equal(t, 1, m.RealtimeDropped())
}
