package billing

import "codecanvas_backend/internal/model"

// Plan tiers recognized by the reconciliation path.
type PlanTier string

const (
	TierFree       PlanTier = "free"
	TierPro        PlanTier = "pro"
	TierEnterprise PlanTier = "enterprise"
)

// Amount thresholds (cents) used only when a Stripe price is not mapped
// in the plan catalog. Kept as a fallback for prices created out of
// band; the catalog price-ID lookup is authoritative.
const (
	enterpriseAmountFloor = 2900
	proAmountFloor        = 1200
)

// ClassifyPriceAmount maps a Stripe price amount in cents to a tier.
func ClassifyPriceAmount(amount int64) PlanTier {
	switch {
	case amount >= enterpriseAmountFloor:
		return TierEnterprise
	case amount >= proAmountFloor:
		return TierPro
	default:
		return TierFree
	}
}

// PlanNameForTier returns the catalog plan name for a tier.
func PlanNameForTier(tier PlanTier) string {
	switch tier {
	case TierEnterprise:
		return "Enterprise"
	case TierPro:
		return "Pro"
	default:
		return "Free"
	}
}

// MatchPlanByPrice resolves a Stripe price to a catalog plan. An exact
// price-ID match wins; unmapped prices fall back to the amount
// thresholds. Returns nil when nothing in the catalog fits.
func MatchPlanByPrice(plans []model.Plan, priceID string, amount int64) *model.Plan {
	if priceID != "" {
		for i := range plans {
			if plans[i].StripeMonthlyPriceID == priceID || plans[i].StripeYearlyPriceID == priceID {
				return &plans[i]
			}
		}
	}

	name := PlanNameForTier(ClassifyPriceAmount(amount))
	for i := range plans {
		if plans[i].Name == name {
			return &plans[i]
		}
	}
	return nil
}
