package unitofwork

import (
	"context"

	"convohealth-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SoapNoteRepository() contract.SoapNoteRepository
	ApiCredentialRepository() contract.ApiCredentialRepository
	RecordingUsageRepository() contract.RecordingUsageRepository
	PreferenceRepository() contract.PreferenceRepository
}
