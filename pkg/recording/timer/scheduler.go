package timer

import (
	"sync"
	"time"
)

// Cancel stops a scheduled callback. Safe to call more than once.
type Cancel func()

// Scheduler runs a callback at a fixed cadence until cancelled.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Cancel
}

// TickerScheduler drives callbacks from a time.Ticker goroutine.
type TickerScheduler struct{}

func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

func (TickerScheduler) Every(interval time.Duration, fn func()) Cancel {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
			<-stopped
		})
	}
}

// ManualScheduler fires callbacks only when Tick is called. Used by tests to
// drive frames deterministically and to assert nothing leaks after teardown.
type ManualScheduler struct {
	mu     sync.Mutex
	nextID int
	active map[int]func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{active: make(map[int]func())}
}

func (s *ManualScheduler) Every(_ time.Duration, fn func()) Cancel {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.active[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.active, id)
			s.mu.Unlock()
		})
	}
}

// Tick invokes every live callback once.
func (s *ManualScheduler) Tick() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.active))
	for _, fn := range s.active {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Active reports how many callbacks are still scheduled.
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
