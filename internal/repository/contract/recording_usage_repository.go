package contract

import (
	"context"

	"convohealth-be/internal/entity"
	"convohealth-be/internal/repository/specification"

	"github.com/google/uuid"
)

type RecordingUsageRepository interface {
	Create(ctx context.Context, usage *entity.RecordingUsage) error
	UpdateMinutes(ctx context.Context, id uuid.UUID, minutes float64) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecordingUsage, error)
	SumMinutes(ctx context.Context, specs ...specification.Specification) (float64, error)
}
