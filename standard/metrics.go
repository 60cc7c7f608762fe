package standard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for keepalive_requests_total.
const (
	OutcomeSuccess = "success"
	OutcomeHTTPErr = "http_error"
	OutcomeNetErr  = "network_error"
)

// Metrics exposes ping outcomes as Prometheus collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
	lastOK   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg (nil skips registration).
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keepalive",
			Name:      "requests_total",
			Help:      "Keep-alive requests sent, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "keepalive",
			Name:      "request_duration_seconds",
			Help:      "Latency of keep-alive requests.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 15},
		}),
		lastOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "keepalive",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last keep-alive request that got a 2xx response.",
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration, m.lastOK} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records one ping. A nil Metrics is a no-op.
func (m *Metrics) Observe(outcome string, latency time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.Observe(latency.Seconds())
	if outcome == OutcomeSuccess {
		m.lastOK.Set(float64(at.Unix()))
	}
}
