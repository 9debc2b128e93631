package implementation

import (
	"context"

	"convohealth-be/internal/entity"
	"convohealth-be/internal/mapper"
	"convohealth-be/internal/model"
	"convohealth-be/internal/repository/contract"
	"convohealth-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecordingUsageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RecordingUsageMapper
}

func NewRecordingUsageRepository(db *gorm.DB) contract.RecordingUsageRepository {
	return &RecordingUsageRepositoryImpl{
		db:     db,
		mapper: mapper.NewRecordingUsageMapper(),
	}
}

func (r *RecordingUsageRepositoryImpl) Create(ctx context.Context, usage *entity.RecordingUsage) error {
	m := r.mapper.ToModel(usage)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*usage = *r.mapper.ToEntity(m)
	return nil
}

func (r *RecordingUsageRepositoryImpl) UpdateMinutes(ctx context.Context, id uuid.UUID, minutes float64) error {
	result := r.db.WithContext(ctx).
		Model(&model.RecordingUsage{}).
		Where("id = ?", id).
		Update("minutes", minutes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *RecordingUsageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecordingUsage, error) {
	var models []*model.RecordingUsage
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *RecordingUsageRepositoryImpl) SumMinutes(ctx context.Context, specs ...specification.Specification) (float64, error) {
	var total float64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.RecordingUsage{}), specs...)
	if err := query.Select("COALESCE(SUM(minutes), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
