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
)

type SoapNoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SoapNoteMapper
}

func NewSoapNoteRepository(db *gorm.DB) contract.SoapNoteRepository {
	return &SoapNoteRepositoryImpl{
		db:     db,
		mapper: mapper.NewSoapNoteMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SoapNoteRepositoryImpl) Create(ctx context.Context, note *entity.SoapNote) error {
	m, err := r.mapper.ToModel(note)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	saved, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*note = *saved
	return nil
}

func (r *SoapNoteRepositoryImpl) Delete(ctx context.Context, specs ...specification.Specification) (int64, error) {
	if len(specs) == 0 {
		return 0, errors.New("refusing to delete soap notes without a filter")
	}
	result := applySpecifications(r.db.WithContext(ctx), specs...).Delete(&model.SoapNote{})
	return result.RowsAffected, result.Error
}

func (r *SoapNoteRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SoapNote, error) {
	var m model.SoapNote
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *SoapNoteRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SoapNote, error) {
	var models []*model.SoapNote
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}

func (r *SoapNoteRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.SoapNote{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
