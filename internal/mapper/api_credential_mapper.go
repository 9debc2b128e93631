package mapper

import (
	"convohealth-be/internal/entity"
	"convohealth-be/internal/model"
)

type ApiCredentialMapper struct{}

func NewApiCredentialMapper() *ApiCredentialMapper {
	return &ApiCredentialMapper{}
}

func (m *ApiCredentialMapper) ToEntity(c *model.ApiCredential) *entity.ApiCredential {
	if c == nil {
		return nil
	}
	return &entity.ApiCredential{
		Id:        c.Id,
		Name:      c.Name,
		ApiKey:    c.ApiKey,
		Endpoint:  c.Endpoint,
		IsActive:  c.Status == model.CredentialStatusActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (m *ApiCredentialMapper) ToModel(c *entity.ApiCredential) *model.ApiCredential {
	if c == nil {
		return nil
	}
	status := model.CredentialStatusInactive
	if c.IsActive {
		status = model.CredentialStatusActive
	}
	return &model.ApiCredential{
		Id:        c.Id,
		Name:      c.Name,
		ApiKey:    c.ApiKey,
		Endpoint:  c.Endpoint,
		Status:    status,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
