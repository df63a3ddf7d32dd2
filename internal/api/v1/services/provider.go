package services

import (
	"context"

	"printforge/internal/api/errors"
	"printforge/internal/api/v1/dto"
	"printforge/internal/app/api/provider"
)

// ProviderServiceImpl exposes the provider registry over the API.
type ProviderServiceImpl struct {
	registry provider.Registry
	stats    *provider.Metrics
}

// NewProviderService creates the provider service.
func NewProviderService(registry provider.Registry, stats *provider.Metrics) ProviderService {
	return &ProviderServiceImpl{registry: registry, stats: stats}
}

func (s *ProviderServiceImpl) List(ctx context.Context) []dto.ProviderResponse {
	names := s.registry.ListProviders()
	out := make([]dto.ProviderResponse, 0, len(names))
	for _, name := range names {
		p, err := s.registry.GetProvider(name)
		if err != nil {
			continue
		}
		info := p.GetProviderInfo()
		out = append(out, dto.ProviderResponse{
			Name:             info.Name,
			Type:             info.Type,
			Version:          info.Version,
			SupportedFormats: info.SupportedFormats,
			Healthy:          s.stats.GetProviderStats(name).IsHealthy,
		})
	}
	return out
}

func (s *ProviderServiceImpl) Stats(name string) (*dto.ProviderStatsResponse, error) {
	if _, err := s.registry.GetProvider(name); err != nil {
		return nil, errors.NewNotFoundError("provider")
	}
	return &dto.ProviderStatsResponse{Stats: s.stats.GetProviderStats(name)}, nil
}

func (s *ProviderServiceImpl) HealthCheck(ctx context.Context) map[string]error {
	return s.registry.HealthCheckAll(ctx)
}
