package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NoteRetention is how long a saved note stays readable.
const NoteRetention = 7 * 24 * time.Hour

type SoapNote struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId            uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title             string         `gorm:"type:varchar(255);not null"`
	Subjective        string         `gorm:"type:text"`
	Objective         string         `gorm:"type:text"`
	Assessment        string         `gorm:"type:text"`
	Plan              string         `gorm:"type:text"`
	TranscriptData    datatypes.JSON
	RecordingDuration float64        `gorm:"not null;default:0"` // minutes
	CreatedAt         time.Time      `gorm:"not null;index"`
	ExpiresAt         time.Time      `gorm:"not null;index"`
}

func (SoapNote) TableName() string {
	return "soap_notes"
}

// BeforeCreate stamps the server-side timestamps. ExpiresAt is always derived
// from CreatedAt so a client can never extend retention.
func (n *SoapNote) BeforeCreate(tx *gorm.DB) error {
	if n.Id == uuid.Nil {
		n.Id = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.ExpiresAt = n.CreatedAt.Add(NoteRetention)
	return nil
}
