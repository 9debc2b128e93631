package contract

import (
	"context"

	"convohealth-be/internal/entity"
	"convohealth-be/internal/repository/specification"
)

type SoapNoteRepository interface {
	Create(ctx context.Context, note *entity.SoapNote) error
	// Delete removes every row matching specs and reports how many went.
	Delete(ctx context.Context, specs ...specification.Specification) (int64, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SoapNote, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SoapNote, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
