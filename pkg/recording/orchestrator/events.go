package orchestrator

import (
	"time"

	"convohealth-be/pkg/soap"
	"convohealth-be/pkg/transcription"
)

type EventType string

const (
	EventStatus   EventType = "status"
	EventPhase    EventType = "phase"
	EventTick     EventType = "tick"
	EventNotice   EventType = "notice"
	EventComplete EventType = "complete"
)

type NoticeKind string

const (
	NoticeEmptyAudio            NoticeKind = "empty_audio"
	NoticeTranscriptionFallback NoticeKind = "transcription_fallback"
	NoticeNoteFallback          NoticeKind = "note_fallback"
)

// Notice is a non-blocking message for the user about degraded output.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

type Event struct {
	SessionID      string    `json:"sessionId"`
	Type           EventType `json:"type"`
	Status         Status    `json:"status"`
	Phase          Phase     `json:"phase"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
	Notice         *Notice   `json:"notice,omitempty"`
	At             time.Time `json:"at"`
}

// Listener observes session events. It is called outside the session lock
// and may call Snapshot; it must not block for long.
type Listener func(Event)

type Result struct {
	DurationSeconds       int                      `json:"durationSeconds"`
	Transcript            transcription.Transcript `json:"transcript"`
	Note                  soap.Note                `json:"note"`
	Notices               []Notice                 `json:"notices"`
	TranscriptionProvider string                   `json:"transcriptionProvider"`
	NoteGenerator         string                   `json:"noteGenerator"`
}

type Snapshot struct {
	ID             string  `json:"id"`
	Status         Status  `json:"status"`
	Phase          Phase   `json:"phase"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	Chunks         int     `json:"chunks"`
	Result         *Result `json:"result,omitempty"`
}
