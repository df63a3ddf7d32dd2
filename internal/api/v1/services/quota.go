package services

import (
	"context"

	"printforge/internal/api/v1/dto"
	"printforge/internal/app/model"
	"printforge/internal/app/quota"
)

// QuotaServiceImpl adapts the quota gate to the API DTOs.
type QuotaServiceImpl struct {
	gate *quota.Gate
}

// NewQuotaService creates the quota service.
func NewQuotaService(gate *quota.Gate) QuotaService {
	return &QuotaServiceImpl{gate: gate}
}

func (s *QuotaServiceImpl) Usage(ctx context.Context, userID string) (*dto.UsageResponse, error) {
	rec, err := s.gate.Usage(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToUsageResponse(rec)
	return &resp, nil
}

func (s *QuotaServiceImpl) UpgradeTier(ctx context.Context, userID, tier string) error {
	return s.gate.UpgradeTier(ctx, userID, model.SubscriptionTier(tier))
}

func (s *QuotaServiceImpl) ResetLimits(ctx context.Context, userID string) error {
	return s.gate.ResetLimits(ctx, userID)
}
