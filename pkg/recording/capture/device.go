// Package capture owns the microphone stream for one recording session and
// turns it into an ordered sequence of audio chunks.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrNoInputDevice    = errors.New("no audio input device")
	ErrDeviceBusy       = errors.New("audio input already in use")
	ErrStreamClosed     = errors.New("audio stream closed")
)

// DeviceError is terminal for the session: the caller must restart explicitly.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("capture %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Device hands out an exclusive audio stream.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream yields the audio captured since the previous Drain.
type Stream interface {
	Drain() []byte
	Close() error
}

// PushDevice is fed by the client shell, which uploads microphone bytes as
// they are recorded. Only one stream may be open at a time.
type PushDevice struct {
	mu      sync.Mutex
	open    *pushStream
	denied  bool
	missing bool
}

func NewPushDevice() *PushDevice {
	return &PushDevice{}
}

// Deny makes subsequent opens fail as if the user revoked microphone access.
func (d *PushDevice) Deny() {
	d.mu.Lock()
	d.denied = true
	d.mu.Unlock()
}

// Detach makes subsequent opens fail as if no input device were present.
func (d *PushDevice) Detach() {
	d.mu.Lock()
	d.missing = true
	d.mu.Unlock()
}

func (d *PushDevice) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case d.denied:
		return nil, ErrPermissionDenied
	case d.missing:
		return nil, ErrNoInputDevice
	case d.open != nil:
		return nil, ErrDeviceBusy
	}

	s := &pushStream{device: d}
	d.open = s
	return s, nil
}

// Write appends uploaded audio to the open stream.
func (d *PushDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	s := d.open
	d.mu.Unlock()

	if s == nil {
		return 0, ErrStreamClosed
	}
	return s.write(p)
}

// InUse reports whether a stream currently holds the device.
func (d *PushDevice) InUse() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open != nil
}

func (d *PushDevice) release(s *pushStream) {
	d.mu.Lock()
	if d.open == s {
		d.open = nil
	}
	d.mu.Unlock()
}

type pushStream struct {
	device *PushDevice
	mu     sync.Mutex
	buf    []byte
	closed bool
}

func (s *pushStream) write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStreamClosed
	}
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func (s *pushStream) Drain() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		return nil
	}
	out := s.buf
	s.buf = nil
	return out
}

func (s *pushStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.buf = nil
	s.mu.Unlock()

	s.device.release(s)
	return nil
}
