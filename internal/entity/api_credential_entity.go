package entity

import (
	"time"

	"github.com/google/uuid"
)

type ApiCredential struct {
	Id        uuid.UUID
	Name      string
	ApiKey    string
	Endpoint  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
