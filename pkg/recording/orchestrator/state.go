// Package orchestrator sequences one recording session: capture, timer,
// transcription and note generation.
//
// Status transitions:
//
//	IDLE ─Start→ RECORDING ⇄ PAUSED ─Stop→ PROCESSING ─(pipeline)→ COMPLETE ─Reset→ IDLE
//
// While PROCESSING the phase advances TRANSCRIBING → ANALYZING → GENERATING →
// COMPLETE. The pipeline always settles: failing providers are replaced by
// their fallbacks, so PROCESSING never becomes a dead end.
package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

type Status int

const (
	StatusIdle Status = iota
	StatusRecording
	StatusPaused
	StatusProcessing
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRecording:
		return "recording"
	case StatusPaused:
		return "paused"
	case StatusProcessing:
		return "processing"
	case StatusComplete:
		return "complete"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for c := StatusIdle; c <= StatusComplete; c++ {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Capturing reports whether the session currently holds the capture device.
func (s Status) Capturing() bool {
	return s == StatusRecording || s == StatusPaused
}

type Phase int

const (
	PhaseNone Phase = iota
	PhaseTranscribing
	PhaseAnalyzing
	PhaseGenerating
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseTranscribing:
		return "transcribing"
	case PhaseAnalyzing:
		return "analyzing"
	case PhaseGenerating:
		return "generating"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for c := PhaseNone; c <= PhaseComplete; c++ {
		if c.String() == string(text) {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

var (
	ErrAlreadyStopped = errors.New("recording already stopped")
	ErrNotRecording   = errors.New("no recording in progress")
	ErrProcessing     = errors.New("recording is still processing")
	ErrClosed         = errors.New("recording session closed")
)

// TransitionError reports an operation that is not allowed in the current
// status.
type TransitionError struct {
	Op   string
	From Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Op, strings.ToLower(e.From.String()))
}
