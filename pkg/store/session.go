// Package store holds the in-memory shapes shared between the recording
// service and its session registry.
package store

import (
	"sync"
	"time"

	"convohealth-be/pkg/recording/capture"
	"convohealth-be/pkg/recording/orchestrator"
	"convohealth-be/pkg/usage"

	"github.com/google/uuid"
)

// RecordingSession is one owner's live recording: the orchestrator driving it
// and the push device the mobile shell uploads audio into.
type RecordingSession struct {
	ID           string
	OwnerID      uuid.UUID
	Orchestrator *orchestrator.Orchestrator
	Device       *capture.PushDevice
	CreatedAt    time.Time

	mu     sync.Mutex
	notice *usage.Notice
}

// SetUsage records the meter notice produced when the session completed.
func (s *RecordingSession) SetUsage(n usage.Notice) {
	s.mu.Lock()
	s.notice = &n
	s.mu.Unlock()
}

func (s *RecordingSession) Usage() *usage.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notice == nil {
		return nil
	}
	n := *s.notice
	return &n
}
