package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecordingUsage is one finished session's contribution to the trial meter.
type RecordingUsage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	Minutes   float64   `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (RecordingUsage) TableName() string {
	return "recording_usages"
}

func (u *RecordingUsage) BeforeCreate(tx *gorm.DB) error {
	if u.Id == uuid.Nil {
		u.Id = uuid.New()
	}
	return nil
}
