package entity

import (
	"time"

	"convohealth-be/pkg/soap"
	"convohealth-be/pkg/transcription"

	"github.com/google/uuid"
)

type SoapNote struct {
	Id                uuid.UUID
	UserId            uuid.UUID
	Title             string
	Note              soap.Note
	Transcript        transcription.Transcript
	RecordingDuration float64 // minutes
	CreatedAt         time.Time
	ExpiresAt         time.Time
}

func (n *SoapNote) IsExpired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}
