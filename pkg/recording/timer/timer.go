// Package timer tracks recording duration from wall-clock deltas so the
// reported value survives throttled or missed ticks.
package timer

import (
	"math"
	"sync"
	"time"
)

// Clock returns the current wall-clock time. Injectable for tests.
type Clock func() time.Time

// Timer accumulates elapsed time across start/pause/resume/stop.
//
// While running, Elapsed reports accumulated + (now - startedAt). Pausing folds
// the in-flight delta into accumulated exactly once, so repeated pause/resume
// cycles neither lose nor double-count time.
type Timer struct {
	mu          sync.Mutex
	clock       Clock
	accumulated time.Duration
	startedAt   time.Time
	running     bool
}

func New(clock Clock) *Timer {
	if clock == nil {
		clock = time.Now
	}
	return &Timer{clock: clock}
}

// Start begins a fresh measurement on top of whatever is accumulated.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.startedAt = t.clock()
	t.running = true
}

func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fold()
}

// Resume restarts the wall-clock reference without touching accumulated.
func (t *Timer) Resume() {
	t.Start()
}

// Stop folds any in-flight delta and returns the floored whole seconds.
func (t *Timer) Stop() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fold()
	return int(math.Floor(t.accumulated.Seconds()))
}

func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accumulated = 0
	t.startedAt = time.Time{}
	t.running = false
}

// Elapsed returns the seconds measured so far, including the running delta.
func (t *Timer) Elapsed() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := t.accumulated
	if t.running {
		if d := t.clock().Sub(t.startedAt); d > 0 {
			total += d
		}
	}
	return total.Seconds()
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Timer) fold() {
	if !t.running {
		return
	}
	// A clock stepping backwards must not shrink the total.
	if d := t.clock().Sub(t.startedAt); d > 0 {
		t.accumulated += d
	}
	t.startedAt = time.Time{}
	t.running = false
}
