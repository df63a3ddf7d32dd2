package dto

import "printforge/internal/app/model"

// UsageResponse reports the caller's counters against their tier limits.
type UsageResponse struct {
	UserID       string           `json:"user_id"`
	Tier         string           `json:"tier"`
	DailyCount   int              `json:"daily_count"`
	MonthlyCount int              `json:"monthly_count"`
	TotalCostUSD float64          `json:"total_cost_usd"`
	Limits       model.TierLimits `json:"limits"`
}

// ToUsageResponse maps the domain usage record.
func ToUsageResponse(rec *model.UsageRecord) UsageResponse {
	return UsageResponse{
		UserID:       rec.UserID,
		Tier:         string(rec.Tier),
		DailyCount:   rec.DailyCount,
		MonthlyCount: rec.MonthlyCount,
		TotalCostUSD: rec.TotalCostUSD,
		Limits:       rec.Limits,
	}
}

// UpgradeTierRequest sets a user's subscription tier. Admin surface.
type UpgradeTierRequest struct {
	Tier string `json:"tier" binding:"required,oneof=free premium enterprise"`
}
