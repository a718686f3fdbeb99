package billing

import (
	"testing"

	"codecanvas_backend/internal/model"
)

func TestClassifyPriceAmount(t *testing.T) {
	tests := []struct {
		amount int64
		want   PlanTier
	}{
		{amount: 0, want: TierFree},
		{amount: 500, want: TierFree},
		{amount: 1199, want: TierFree},
		{amount: 1200, want: TierPro},
		{amount: 2899, want: TierPro},
		{amount: 2900, want: TierEnterprise},
		{amount: 9900, want: TierEnterprise},
	}

	for _, tt := range tests {
		if got := ClassifyPriceAmount(tt.amount); got != tt.want {
			t.Fatalf("ClassifyPriceAmount(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestPlanNameForTier(t *testing.T) {
	if PlanNameForTier(TierEnterprise) != "Enterprise" {
		t.Fatal("enterprise tier should map to the Enterprise plan")
	}
	if PlanNameForTier(TierPro) != "Pro" {
		t.Fatal("pro tier should map to the Pro plan")
	}
	if PlanNameForTier(TierFree) != "Free" {
		t.Fatal("free tier should map to the Free plan")
	}
	if PlanNameForTier(PlanTier("bogus")) != "Free" {
		t.Fatal("unknown tiers should fall back to Free")
	}
}

func catalog() []model.Plan {
	free := model.Plan{Name: "Free"}
	free.ID = 1

	pro := model.Plan{
		Name:                 "Pro",
		StripeMonthlyPriceID: "price_pro_monthly",
		StripeYearlyPriceID:  "price_pro_yearly",
	}
	pro.ID = 2

	enterprise := model.Plan{
		Name:                 "Enterprise",
		StripeMonthlyPriceID: "price_ent_monthly",
		StripeYearlyPriceID:  "price_ent_yearly",
	}
	enterprise.ID = 3

	return []model.Plan{free, pro, enterprise}
}

func TestMatchPlanByPricePrefersExactID(t *testing.T) {
	plans := catalog()

	// Price-ID match wins even when the amount says otherwise.
	plan := MatchPlanByPrice(plans, "price_ent_yearly", 0)
	if plan == nil || plan.Name != "Enterprise" {
		t.Fatalf("expected Enterprise for mapped price ID, got %+v", plan)
	}

	plan = MatchPlanByPrice(plans, "price_pro_monthly", 99999)
	if plan == nil || plan.Name != "Pro" {
		t.Fatalf("expected Pro for mapped price ID, got %+v", plan)
	}
}

func TestMatchPlanByPriceThresholdFallback(t *testing.T) {
	plans := catalog()

	tests := []struct {
		amount int64
		want   string
	}{
		{amount: 2900, want: "Enterprise"},
		{amount: 1200, want: "Pro"},
		{amount: 1199, want: "Free"},
		{amount: 0, want: "Free"},
	}

	for _, tt := range tests {
		plan := MatchPlanByPrice(plans, "price_unmapped", tt.amount)
		if plan == nil || plan.Name != tt.want {
			t.Fatalf("amount %d: expected %s, got %+v", tt.amount, tt.want, plan)
		}
	}
}

func TestMatchPlanByPriceEmptyCatalog(t *testing.T) {
	if plan := MatchPlanByPrice(nil, "price_x", 1200); plan != nil {
		t.Fatalf("expected nil for empty catalog, got %+v", plan)
	}
}
