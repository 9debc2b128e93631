package dto

import (
	"time"

	"convohealth-be/pkg/soap"
	"convohealth-be/pkg/transcription"

	"github.com/google/uuid"
)

type SaveSoapNoteRequest struct {
	Title           string                   `json:"title" validate:"max=255"`
	Note            soap.Note                `json:"note"`
	Transcript      transcription.Transcript `json:"transcript" validate:"dive"`
	DurationSeconds float64                  `json:"duration_seconds" validate:"gte=0"`
}

type SoapNoteResponse struct {
	Id                uuid.UUID                `json:"id"`
	Title             string                   `json:"title"`
	Note              soap.Note                `json:"note"`
	Transcript        transcription.Transcript `json:"transcript"`
	RecordingDuration float64                  `json:"recording_duration"` // minutes
	CreatedAt         time.Time                `json:"created_at"`
	ExpiresAt         time.Time                `json:"expires_at"`
	IsExpired         bool                     `json:"is_expired"`
}

type SoapNoteListItem struct {
	Id                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	Preview           string    `json:"preview"`
	RecordingDuration float64   `json:"recording_duration"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	IsExpired         bool      `json:"is_expired"`
}

type SoapNoteExportResponse struct {
	Id       uuid.UUID `json:"id"`
	Filename string    `json:"filename"`
	Content  string    `json:"content"`
}

type PurgeResult struct {
	Deleted int64     `json:"deleted"`
	At      time.Time `json:"at"`
}
