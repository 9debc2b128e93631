package mapper

import (
	"convohealth-be/internal/entity"
	"convohealth-be/internal/model"
)

type RecordingUsageMapper struct{}

func NewRecordingUsageMapper() *RecordingUsageMapper {
	return &RecordingUsageMapper{}
}

func (m *RecordingUsageMapper) ToEntity(u *model.RecordingUsage) *entity.RecordingUsage {
	if u == nil {
		return nil
	}
	return &entity.RecordingUsage{
		Id:        u.Id,
		UserId:    u.UserId,
		Minutes:   u.Minutes,
		CreatedAt: u.CreatedAt,
	}
}

func (m *RecordingUsageMapper) ToModel(u *entity.RecordingUsage) *model.RecordingUsage {
	if u == nil {
		return nil
	}
	return &model.RecordingUsage{
		Id:        u.Id,
		UserId:    u.UserId,
		Minutes:   u.Minutes,
		CreatedAt: u.CreatedAt,
	}
}

func (m *RecordingUsageMapper) ToEntities(rows []*model.RecordingUsage) []*entity.RecordingUsage {
	entities := make([]*entity.RecordingUsage, len(rows))
	for i, u := range rows {
		entities[i] = m.ToEntity(u)
	}
	return entities
}
