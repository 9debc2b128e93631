package contract

import (
	"context"

	"convohealth-be/internal/entity"
)

type PreferenceRepository interface {
	// FindByKey returns nil, nil when the key has never been written.
	FindByKey(ctx context.Context, key string) (*entity.Preference, error)
	Save(ctx context.Context, pref *entity.Preference) error
}
