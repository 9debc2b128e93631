package entity

import (
	"time"

	"github.com/google/uuid"
)

type RecordingUsage struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Minutes   float64
	CreatedAt time.Time
}
