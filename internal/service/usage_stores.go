package service

import (
	"context"

	"convohealth-be/internal/entity"
	"convohealth-be/internal/repository/specification"
	"convohealth-be/internal/repository/unitofwork"
	"convohealth-be/pkg/preferences"
	"convohealth-be/pkg/usage"

	"github.com/google/uuid"
)

// preferenceBackend stores owner preferences in the preferences table. Used
// when Redis is not configured.
type preferenceBackend struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewPreferenceBackend(uowFactory unitofwork.RepositoryFactory) preferences.Backend {
	return &preferenceBackend{uowFactory: uowFactory}
}

func (b *preferenceBackend) Get(ctx context.Context, key string) (string, bool, error) {
	pref, err := b.uowFactory.NewUnitOfWork(ctx).PreferenceRepository().FindByKey(ctx, key)
	if err != nil {
		return "", false, err
	}
	if pref == nil {
		return "", false, nil
	}
	return pref.Value, true, nil
}

func (b *preferenceBackend) Set(ctx context.Context, key, value string) error {
	return b.uowFactory.NewUnitOfWork(ctx).PreferenceRepository().Save(ctx, &entity.Preference{Key: key, Value: value})
}

// durationStore adapts recording_usages rows to the meter's store.
type durationStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewDurationStore(uowFactory unitofwork.RepositoryFactory) usage.DurationStore {
	return &durationStore{uowFactory: uowFactory}
}

func (s *durationStore) Record(ctx context.Context, owner string, minutes float64) error {
	ownerId, err := uuid.Parse(owner)
	if err != nil {
		return err
	}
	return s.uowFactory.NewUnitOfWork(ctx).RecordingUsageRepository().Create(ctx, &entity.RecordingUsage{
		UserId:  ownerId,
		Minutes: minutes,
	})
}

func (s *durationStore) List(ctx context.Context, owner string) ([]usage.SessionDuration, error) {
	ownerId, err := uuid.Parse(owner)
	if err != nil {
		return nil, err
	}
	rows, err := s.uowFactory.NewUnitOfWork(ctx).RecordingUsageRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: ownerId},
		specification.OldestFirst{},
	)
	if err != nil {
		return nil, err
	}
	out := make([]usage.SessionDuration, len(rows))
	for i, r := range rows {
		out[i] = usage.SessionDuration{ID: r.Id.String(), Minutes: r.Minutes}
	}
	return out, nil
}

func (s *durationStore) Update(ctx context.Context, owner, id string, minutes float64) error {
	rowId, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	return s.uowFactory.NewUnitOfWork(ctx).RecordingUsageRepository().UpdateMinutes(ctx, rowId, minutes)
}
