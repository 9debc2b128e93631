package specification

import (
	"convohealth-be/internal/model"

	"gorm.io/gorm"
)

type ByName struct {
	Name string
}

func (s ByName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}

type ActiveCredential struct{}

func (s ActiveCredential) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", model.CredentialStatusActive)
}
