// Package scheduler drives fixed-interval work. Production code uses a real
// time.Ticker; tests advance a ManualTicker by hand.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

// NewTicker returns a Ticker backed by time.Ticker.
func NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// ManualTicker fires only when Advance is called.
type ManualTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	now     time.Time
	stopped bool
}

// NewManualTicker creates a ManualTicker whose clock starts at start.
func NewManualTicker(start time.Time) *ManualTicker {
	return &ManualTicker{c: make(chan time.Time), now: start}
}

func (m *ManualTicker) C() <-chan time.Time { return m.c }

// Stop makes further Advance calls no-ops.
func (m *ManualTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

// Advance moves the clock by d and blocks until the tick is received or
// ctx is done. It reports whether the tick was delivered.
func (m *ManualTicker) Advance(ctx context.Context, d time.Duration) bool {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return false
	}
	m.now = m.now.Add(d)
	now := m.now
	m.mu.Unlock()

	select {
	case m.c <- now:
		return true
	case <-ctx.Done():
		return false
	}
}

// Loop calls fn for every tick until ctx is cancelled. The ticker is stopped
// on return and fn never runs after Loop has returned.
func Loop(ctx context.Context, t Ticker, fn func(time.Time)) {
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C():
			// Cancellation wins over a tick that raced with it.
			if ctx.Err() != nil {
				return
			}
			fn(now)
		}
	}
}
