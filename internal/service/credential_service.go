package service

import (
	"context"
	"time"

	"convohealth-be/internal/entity"
	"convohealth-be/internal/pkg/logger"
	"convohealth-be/internal/repository/specification"
	"convohealth-be/internal/repository/unitofwork"
	"convohealth-be/pkg/credential"

	"github.com/patrickmn/go-cache"
)

const credentialCacheTTL = 5 * time.Minute

// ICredentialService is the read side used by provider clients plus the
// seeding entry point used by the operator command.
type ICredentialService interface {
	credential.Lookup
	Upsert(ctx context.Context, name, apiKey, endpoint string, active bool) error
	Invalidate(name string)
}

type credentialService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *cache.Cache
	logger     logger.ILogger
}

func NewCredentialService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) ICredentialService {
	return &credentialService{
		uowFactory: uowFactory,
		cache:      cache.New(credentialCacheTTL, 10*time.Minute),
		logger:     log,
	}
}

// Active resolves the credential for a provider. Misses are cached too so a
// missing row does not cost a query per recording.
func (s *credentialService) Active(ctx context.Context, provider string) (credential.Credential, error) {
	if x, found := s.cache.Get(provider); found {
		if c, ok := x.(credential.Credential); ok {
			return c, nil
		}
		return credential.Credential{}, credential.ErrUnavailable
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	row, err := uow.ApiCredentialRepository().FindOne(ctx,
		specification.ByName{Name: provider},
		specification.ActiveCredential{},
	)
	if err != nil {
		// Not cached: a database blip should not pin the fallback for 5 minutes.
		s.logger.Warn("CredentialService", "Credential lookup failed", map[string]interface{}{
			"provider": provider,
			"error":    err.Error(),
		})
		return credential.Credential{}, credential.ErrUnavailable
	}

	if row == nil || (row.ApiKey == "" && row.Endpoint == "") {
		s.cache.Set(provider, false, cache.DefaultExpiration)
		return credential.Credential{}, credential.ErrUnavailable
	}

	c := credential.Credential{Name: row.Name, APIKey: row.ApiKey, Endpoint: row.Endpoint}
	s.cache.Set(provider, c, cache.DefaultExpiration)
	return c, nil
}

func (s *credentialService) Upsert(ctx context.Context, name, apiKey, endpoint string, active bool) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	err := uow.ApiCredentialRepository().Upsert(ctx, &entity.ApiCredential{
		Name:     name,
		ApiKey:   apiKey,
		Endpoint: endpoint,
		IsActive: active,
	})
	if err != nil {
		return err
	}
	s.Invalidate(name)
	return nil
}

func (s *credentialService) Invalidate(name string) {
	s.cache.Delete(name)
}
