package schedule

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrTickerRunning is returned when Start is called on a ticker that is already armed.
var ErrTickerRunning = errors.New("ticker already running")

// Ticker runs fn every interval, first firing one interval after Start.
// The next fire is armed before fn runs, so a slow fn never shifts the schedule.
type Ticker struct {
	clock    Clock
	interval time.Duration
	fn       func()

	mu         sync.Mutex
	timer      Timer
	running    bool
	generation uint64
}

// NewTicker creates a stopped ticker. A nil clock means RealClock.
func NewTicker(clock Clock, interval time.Duration, fn func()) (*Ticker, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be > 0, got %s", interval)
	}
	if fn == nil {
		return nil, errors.New("fn required")
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Ticker{
		clock:    clock,
		interval: interval,
		fn:       fn,
	}, nil
}

// Interval returns the fixed period between fires.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Running reports whether the ticker is armed.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Start arms the ticker.
func (t *Ticker) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return ErrTickerRunning
	}
	t.running = true
	t.generation++

	gen := t.generation
	t.timer = t.clock.AfterFunc(t.interval, func() { t.onFire(gen) })
	return nil
}

// Stop disarms the ticker. Calls already in progress finish; no new ones start.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}
	t.running = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Ticker) onFire(gen uint64) {
	t.mu.Lock()
	if !t.running || gen != t.generation {
		t.mu.Unlock()
		return
	}
	t.timer.Reset(t.interval)
	t.mu.Unlock()

	t.fn()
}
