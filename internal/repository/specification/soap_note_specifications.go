package specification

import (
	"time"

	"gorm.io/gorm"
)

// ExpiredAt matches rows whose retention window has closed at the given instant.
type ExpiredAt struct {
	Now time.Time
}

func (s ExpiredAt) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("expires_at <= ?", s.Now.UTC())
}
