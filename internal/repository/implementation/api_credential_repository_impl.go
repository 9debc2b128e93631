package implementation

import (
	"context"
	"errors"

	"convohealth-be/internal/entity"
	"convohealth-be/internal/mapper"
	"convohealth-be/internal/model"
	"convohealth-be/internal/repository/contract"
	"convohealth-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApiCredentialRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ApiCredentialMapper
}

func NewApiCredentialRepository(db *gorm.DB) contract.ApiCredentialRepository {
	return &ApiCredentialRepositoryImpl{
		db:     db,
		mapper: mapper.NewApiCredentialMapper(),
	}
}

func (r *ApiCredentialRepositoryImpl) Upsert(ctx context.Context, cred *entity.ApiCredential) error {
	m := r.mapper.ToModel(cred)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"api_key", "endpoint", "status", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*cred = *r.mapper.ToEntity(m)
	return nil
}

func (r *ApiCredentialRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ApiCredential, error) {
	var m model.ApiCredential
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
