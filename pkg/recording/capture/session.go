package capture

import (
	"context"
	"errors"
	"sync"
	"time"
)

const DefaultChunkInterval = 500 * time.Millisecond

var (
	ErrNotStarted     = errors.New("capture session not started")
	ErrAlreadyStarted = errors.New("capture session already started")
)

// Session pumps chunks from a device stream at a fixed interval.
type Session struct {
	device   Device
	interval time.Duration

	mu      sync.Mutex
	stream  Stream
	chunks  [][]byte
	paused  bool
	started bool
	done    chan struct{}
	stopped chan struct{}
	release *sync.Once
}

type Option func(*Session)

func WithInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

func NewSession(device Device, opts ...Option) *Session {
	s := &Session{
		device:   device,
		interval: DefaultChunkInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start acquires the device. Failures come back as *DeviceError.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	stream, err := s.device.Open(ctx)
	if err != nil {
		return &DeviceError{Op: "open", Err: err}
	}

	s.stream = stream
	s.started = true
	s.chunks = nil
	s.paused = false
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})
	s.release = &sync.Once{}

	go s.pump(s.done, s.stopped)
	return nil
}

// Pause flushes what was captured so far and suspends emission; the device
// stays held.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	if !s.paused {
		s.collectLocked()
		s.paused = true
	}
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	if s.paused {
		// Audio that arrived while paused belongs to no chunk.
		s.stream.Drain()
		s.paused = false
	}
	return nil
}

// Stop flushes the last chunk, releases the device and returns every chunk
// in capture order.
func (s *Session) Stop() ([][]byte, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	s.mu.Unlock()

	s.shutdown(true)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.chunks
	s.chunks = nil
	return out, nil
}

// Close abandons the session. Buffered chunks are discarded.
func (s *Session) Close() error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return nil
	}
	s.shutdown(false)

	s.mu.Lock()
	s.chunks = nil
	s.mu.Unlock()
	return nil
}

func (s *Session) Chunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Session) shutdown(flush bool) {
	s.release.Do(func() {
		close(s.done)
		<-s.stopped

		s.mu.Lock()
		defer s.mu.Unlock()
		if flush {
			s.collectLocked()
		}
		s.stream.Close()
		s.started = false
	})
}

func (s *Session) pump(done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			s.collectLocked()
			s.mu.Unlock()
		case <-done:
			return
		}
	}
}

func (s *Session) collectLocked() {
	data := s.stream.Drain()
	if s.paused || len(data) == 0 {
		return
	}
	s.chunks = append(s.chunks, data)
}

// Concat joins chunks into the buffer handed to transcription.
func Concat(chunks [][]byte) []byte {
	size := 0
	for _, c := range chunks {
		size += len(c)
	}
	out := make([]byte, 0, size)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
