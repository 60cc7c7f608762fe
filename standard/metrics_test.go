package standard

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsObserve(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	at := time.Unix(1700000000, 0)
	m.Observe(OutcomeSuccess, 10*time.Millisecond, at)
	m.Observe(OutcomeSuccess, 20*time.Millisecond, at.Add(15*time.Second))
	m.Observe(OutcomeHTTPErr, 5*time.Millisecond, at.Add(30*time.Second))

	assert.InDelta(t, 2, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeHTTPErr)), 0)
	assert.InDelta(t, float64(at.Add(15*time.Second).Unix()), testutil.ToFloat64(m.lastOK), 0)

	expected := `
# HELP keepalive_requests_total Keep-alive requests sent, by outcome.
# TYPE keepalive_requests_total counter
keepalive_requests_total{outcome="http_error"} 1
keepalive_requests_total{outcome="success"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "keepalive_requests_total"))
}

func TestMetricsDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	require.Error(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() { m.Observe(OutcomeNetErr, time.Second, time.Now()) })

	unregistered, err := NewMetrics(nil)
	require.NoError(t, err)
	unregistered.Observe(OutcomeNetErr, time.Second, time.Now())
}
