// Package standard provides the built-in observers of keep-alive pings.
package standard

import (
	"sort"
	"sync"
	"time"
)

// Retention is how long individual ping results are kept.
const Retention = time.Hour

// maxRecentErrors bounds Snapshot.RecentErrors.
const maxRecentErrors = 5

// PingResult is the outcome of a single keep-alive request.
type PingResult struct {
	Timestamp  time.Time
	Success    bool
	StatusCode int // 0 when no response arrived
	Latency    time.Duration
	Error      string
}

// Snapshot summarizes the retained results for one target.
type Snapshot struct {
	Target       string        `json:"target"`
	Status       string        `json:"status"`
	LastPing     time.Time     `json:"last_ping"`
	LastSuccess  time.Time     `json:"last_success"`
	Total        int           `json:"total_pings_1h"`
	Failures     int           `json:"failures_1h"`
	SuccessRate  float64       `json:"success_rate_1h"`
	LatencyP50   time.Duration `json:"latency_p50"`
	LatencyP95   time.Duration `json:"latency_p95"`
	LatencyP99   time.Duration `json:"latency_p99"`
	RecentErrors []string      `json:"recent_errors"`
}

type connection struct {
	target      string
	results     []PingResult
	lastSuccess time.Time
}

// ConnectivityTracker records ping outcomes per target. Safe for concurrent use.
type ConnectivityTracker struct {
	mu          sync.Mutex
	now         func() time.Time
	connections map[string]*connection
}

// NewConnectivityTracker creates an empty tracker.
func NewConnectivityTracker() *ConnectivityTracker {
	return NewConnectivityTrackerWithClock(time.Now)
}

// NewConnectivityTrackerWithClock creates a tracker with a custom time source (useful for tests).
func NewConnectivityTrackerWithClock(now func() time.Time) *ConnectivityTracker {
	return &ConnectivityTracker{
		now:         now,
		connections: make(map[string]*connection),
	}
}

// TrackSuccess records a ping that got a 2xx response.
func (t *ConnectivityTracker) TrackSuccess(target string, statusCode int, latency time.Duration) {
	t.track(target, PingResult{
		Success:    true,
		StatusCode: statusCode,
		Latency:    latency,
	})
}

// TrackFailure records a ping that failed or got a non-2xx response.
func (t *ConnectivityTracker) TrackFailure(target string, statusCode int, latency time.Duration, errorMsg string) {
	t.track(target, PingResult{
		StatusCode: statusCode,
		Latency:    latency,
		Error:      errorMsg,
	})
}

func (t *ConnectivityTracker) track(target string, result PingResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	result.Timestamp = t.now().UTC()

	conn := t.getOrCreateConnection(target)
	conn.results = append(conn.results, result)
	if result.Success {
		conn.lastSuccess = result.Timestamp
	}

	t.pruneOldResults(conn)
}

func (t *ConnectivityTracker) getOrCreateConnection(target string) *connection {
	if conn, exists := t.connections[target]; exists {
		return conn
	}

	conn := &connection{target: target}
	t.connections[target] = conn
	return conn
}

// pruneOldResults drops results older than Retention. Results are appended in time order.
func (t *ConnectivityTracker) pruneOldResults(conn *connection) {
	cutoff := t.now().Add(-Retention)
	for i, r := range conn.results {
		if r.Timestamp.After(cutoff) {
			conn.results = conn.results[i:]
			return
		}
	}
	conn.results = nil
}

// Snapshot returns the summary for target. ok is false if nothing was recorded.
func (t *ConnectivityTracker) Snapshot(target string) (snap Snapshot, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	conn, exists := t.connections[target]
	if !exists {
		return Snapshot{}, false
	}
	t.pruneOldResults(conn)
	return summarize(conn), true
}

// Data returns summaries for every tracked target, sorted by target.
func (t *ConnectivityTracker) Data() []Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Snapshot, 0, len(t.connections))
	for _, conn := range t.connections {
		t.pruneOldResults(conn)
		if len(conn.results) == 0 {
			continue
		}
		out = append(out, summarize(conn))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out
}

func summarize(conn *connection) Snapshot {
	snap := Snapshot{
		Target:       conn.target,
		Status:       "unknown",
		LastSuccess:  conn.lastSuccess,
		RecentErrors: make([]string, 0),
	}
	if len(conn.results) == 0 {
		return snap
	}

	latencies := make([]time.Duration, 0, len(conn.results))
	successes := 0

	// newest errors first
	for i := len(conn.results) - 1; i >= 0; i-- {
		r := conn.results[i]
		snap.Total++
		if r.Success {
			successes++
		} else {
			snap.Failures++
			if len(snap.RecentErrors) < maxRecentErrors {
				snap.RecentErrors = append(snap.RecentErrors, r.Error)
			}
		}
		latencies = append(latencies, r.Latency)
		if r.Timestamp.After(snap.LastPing) {
			snap.LastPing = r.Timestamp
		}
	}

	snap.SuccessRate = float64(successes) / float64(snap.Total)

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	snap.LatencyP50 = percentile(latencies, 0.50)
	snap.LatencyP95 = percentile(latencies, 0.95)
	snap.LatencyP99 = percentile(latencies, 0.99)

	switch {
	case snap.SuccessRate < 0.9:
		snap.Status = "unhealthy"
	case snap.SuccessRate < 0.95:
		snap.Status = "degraded"
	default:
		snap.Status = "healthy"
	}

	return snap
}

// percentile returns the p-th percentile of an ascending slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	index := int(float64(len(sorted)-1) * p)
	return sorted[index]
}
