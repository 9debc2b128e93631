package implementation

import (
	"context"
	"errors"

	"convohealth-be/internal/entity"
	"convohealth-be/internal/model"
	"convohealth-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferenceRepositoryImpl struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) contract.PreferenceRepository {
	return &PreferenceRepositoryImpl{db: db}
}

func (r *PreferenceRepositoryImpl) FindByKey(ctx context.Context, key string) (*entity.Preference, error) {
	var m model.Preference
	if err := r.db.WithContext(ctx).Where("pref_key = ?", key).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entity.Preference{Key: m.Key, Value: m.Value}, nil
}

func (r *PreferenceRepositoryImpl) Save(ctx context.Context, pref *entity.Preference) error {
	m := &model.Preference{Key: pref.Key, Value: pref.Value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pref_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(m).Error
}
