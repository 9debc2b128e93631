package contract

import (
	"context"

	"convohealth-be/internal/entity"
	"convohealth-be/internal/repository/specification"
)

type ApiCredentialRepository interface {
	// Upsert creates or replaces the credential with the same name.
	Upsert(ctx context.Context, cred *entity.ApiCredential) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ApiCredential, error)
}
