package keepalive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/st-keller/keepalive-client/schedule"
	"github.com/st-keller/keepalive-client/standard"
	"github.com/st-keller/keepalive-client/target"
	"github.com/st-keller/keepalive-client/transport"
)

// DefaultInterval is the heartbeat period used when Config.Interval is zero.
const DefaultInterval = 15 * time.Second

// DefaultPath is the keep-alive route of the companion server.
const DefaultPath = target.DefaultPath

// maxBodyBytes caps how much of a response is read before it is discarded.
const maxBodyBytes = 64 << 10

// minRequestTimeout is the floor for the per-ping deadline, which otherwise equals the interval.
const minRequestTimeout = time.Second

var (
	// ErrAlreadyRunning is returned by Start on an armed client.
	ErrAlreadyRunning = errors.New("heartbeat already running")
	// ErrStopped is returned by Start after Stop; a client is armed at most once.
	ErrStopped = errors.New("heartbeat stopped")
	// ErrInvalidInterval is returned for negative intervals.
	ErrInvalidInterval = errors.New("interval must be > 0")
)

// Doer sends HTTP requests. *http.Client satisfies it.
//
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=internal/mocks/doer_mock.go github.com/st-keller/keepalive-client Doer
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds client configuration. Only OriginURL is required.
type Config struct {
	OriginURL string        // Any URL of the page/app; only its origin is used (e.g., "http://localhost:5000/home")
	Path      string        // Keep-alive route (default DefaultPath)
	Interval  time.Duration // Heartbeat period (default DefaultInterval)

	HTTPClient Doer                          // default: transport.BuildHTTPClient(transport.Options{})
	Clock      schedule.Clock                // default: schedule.RealClock
	Logger     *slog.Logger                  // default: slog.Default()
	Tracker    *standard.ConnectivityTracker // default: a fresh tracker
	Metrics    *standard.Metrics             // optional
}

// Validate checks the fields that have no default.
func (c Config) Validate() error {
	if _, err := target.Resolve(c.OriginURL, c.Path); err != nil {
		return err
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidInterval, c.Interval)
	}
	return nil
}

type state int

const (
	stateIdle state = iota
	stateArmed
	stateStopped
)

// Client is the heartbeat handle. It owns exactly one timer.
type Client struct {
	id       string
	target   string
	interval time.Duration
	http     Doer
	clock    schedule.Clock
	logger   *slog.Logger
	tracker  *standard.ConnectivityTracker
	metrics  *standard.Metrics
	ticker   *schedule.Ticker

	mu       sync.Mutex
	state    state
	inflight sync.WaitGroup
}

// New creates an unarmed client.
func New(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	endpoint, err := target.Resolve(config.OriginURL, config.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	interval := config.Interval
	if interval == 0 {
		interval = DefaultInterval
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		built, err := transport.BuildHTTPClient(transport.Options{})
		if err != nil {
			return nil, fmt.Errorf("failed to build HTTP client: %w", err)
		}
		httpClient = built
	}

	clock := config.Clock
	if clock == nil {
		clock = schedule.RealClock{}
	}

	tracker := config.Tracker
	if tracker == nil {
		tracker = standard.NewConnectivityTrackerWithClock(clock.Now)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	c := &Client{
		id:       id,
		target:   endpoint,
		interval: interval,
		http:     httpClient,
		clock:    clock,
		logger:   logger.With("client_id", id, "target", endpoint),
		tracker:  tracker,
		metrics:  config.Metrics,
	}

	c.ticker, err = schedule.NewTicker(clock, interval, c.onTick)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}

	return c, nil
}

// StartHeartbeat creates a client for originURL and arms it immediately.
// An empty path means DefaultPath, a zero interval means DefaultInterval.
func StartHeartbeat(originURL, path string, interval time.Duration) (*Client, error) {
	c, err := New(Config{
		OriginURL: originURL,
		Path:      path,
		Interval:  interval,
	})
	if err != nil {
		return nil, err
	}
	if err := c.Start(); err != nil {
		return nil, err
	}
	return c, nil
}

// ID returns the random identifier attached to this client's log lines.
func (c *Client) ID() string {
	return c.id
}

// Target returns the full URL every ping is sent to.
func (c *Client) Target() string {
	return c.target
}

// Interval returns the heartbeat period.
func (c *Client) Interval() time.Duration {
	return c.interval
}

// Running reports whether the heartbeat is armed.
func (c *Client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateArmed
}

// Tracker returns the outcome tracker for this client's pings.
func (c *Client) Tracker() *standard.ConnectivityTracker {
	return c.tracker
}

// ============================================================================
// HEARTBEAT TIMER
// ============================================================================

// Start arms the heartbeat. The first ping fires one interval from now.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateArmed:
		return ErrAlreadyRunning
	case stateStopped:
		return ErrStopped
	}

	if err := c.ticker.Start(); err != nil {
		return fmt.Errorf("failed to arm heartbeat: %w", err)
	}
	c.state = stateArmed

	c.logger.Info("keep-alive heartbeat armed", "interval", c.interval.String())
	return nil
}

// StartWhenReady arms the heartbeat once ready is closed.
// It blocks until then and returns ctx.Err() if ctx ends first.
func (c *Client) StartWhenReady(ctx context.Context, ready <-chan struct{}) error {
	select {
	case <-ready:
		return c.Start()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop disarms the heartbeat. Pings already in flight run to completion.
// Safe to call more than once.
func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateStopped {
		return
	}
	wasArmed := c.state == stateArmed
	c.state = stateStopped
	c.ticker.Stop()

	if wasArmed {
		c.logger.Info("keep-alive heartbeat stopped")
	}
}

// Wait blocks until every dispatched ping has finished.
func (c *Client) Wait() {
	c.inflight.Wait()
}

// onTick dispatches one ping without waiting for it.
func (c *Client) onTick() {
	c.mu.Lock()
	if c.state != stateArmed {
		c.mu.Unlock()
		return
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.inflight.Done()
		c.ping()
	}()
}

// ============================================================================
// PING
// ============================================================================

// ping sends one keep-alive request. Every failure ends here: logged at debug, counted, dropped.
func (c *Client) ping() {
	timeout := c.interval
	if timeout < minRequestTimeout {
		timeout = minRequestTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.target, nil)
	if err != nil {
		c.recordFailure(0, 0, err)
		return
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "keepalive-client/"+Version)

	start := c.clock.Now()
	resp, err := c.http.Do(req)
	latency := c.clock.Now().Sub(start)
	if err != nil {
		c.recordFailure(0, latency, err)
		return
	}
	defer resp.Body.Close()

	c.discardBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.recordFailure(resp.StatusCode, latency, fmt.Errorf("HTTP %d", resp.StatusCode))
		return
	}

	c.tracker.TrackSuccess(c.target, resp.StatusCode, latency)
	c.metrics.Observe(standard.OutcomeSuccess, latency, c.clock.Now())
	c.logger.Debug("keep-alive ping sent",
		"status", resp.StatusCode,
		"latency_ms", latency.Milliseconds())
}

// discardBody decodes the body as JSON and throws the result away.
func (c *Client) discardBody(body io.Reader) {
	limited := io.LimitReader(body, maxBodyBytes)

	var payload any
	if err := json.NewDecoder(limited).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		c.logger.Debug("keep-alive response is not JSON", "error", err.Error())
	}
	_, _ = io.Copy(io.Discard, limited)
}

func (c *Client) recordFailure(status int, latency time.Duration, err error) {
	outcome := standard.OutcomeNetErr
	if status != 0 {
		outcome = standard.OutcomeHTTPErr
	}

	c.tracker.TrackFailure(c.target, status, latency, err.Error())
	c.metrics.Observe(outcome, latency, c.clock.Now())
	c.logger.Debug("keep-alive ping failed",
		"status", status,
		"error", err.Error(),
		"latency_ms", latency.Milliseconds())
}
