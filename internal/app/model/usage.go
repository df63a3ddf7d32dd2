package model

// SubscriptionTier controls per-user quota limits
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierPremium    SubscriptionTier = "premium"
	TierEnterprise SubscriptionTier = "enterprise"
)

// Valid reports whether t is a known tier.
func (t SubscriptionTier) Valid() bool {
	switch t {
	case TierFree, TierPremium, TierEnterprise:
		return true
	}
	return false
}

// TierLimits are the quota ceilings derived from a subscription tier.
// A zero value means unlimited.
type TierLimits struct {
	DailyConversions   int     `json:"daily_conversions"`
	MonthlyConversions int     `json:"monthly_conversions"`
	MonthlyCostUSD     float64 `json:"monthly_cost_usd"`
}

// LimitsFor returns the quota limits for a tier. Unknown tiers fall back to
// the free tier so a corrupt record never grants unlimited usage.
func LimitsFor(tier SubscriptionTier) TierLimits {
	switch tier {
	case TierPremium:
		return TierLimits{DailyConversions: 50, MonthlyConversions: 500, MonthlyCostUSD: 100}
	case TierEnterprise:
		return TierLimits{DailyConversions: 0, MonthlyConversions: 0, MonthlyCostUSD: 0}
	default:
		return TierLimits{DailyConversions: 10, MonthlyConversions: 60, MonthlyCostUSD: 10}
	}
}

// UsageRecord is one user's rolling consumption counters
type UsageRecord struct {
	UserID       string           `json:"user_id"`
	Tier         SubscriptionTier `json:"tier"`
	DailyCount   int              `json:"daily_count"`
	MonthlyCount int              `json:"monthly_count"`
	TotalCostUSD float64          `json:"total_cost_usd"`
	Limits       TierLimits       `json:"limits"`
}
