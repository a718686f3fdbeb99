package seed

import (
	"log"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"codecanvas_backend/internal/model"
)

// FreePlanName is the catalog row every user without a paid subscription
// falls back to. The entitlement layer refuses to start without it.
const FreePlanName = "Free"

func SeedSubscriptionPlans(db *gorm.DB) {
	plans := []model.Plan{
		{
			Name:             FreePlanName,
			Description:      "Get started with a personal portfolio",
			PriceMonthly:     0,
			PriceYearly:      0,
			MaxPortfolios:    2,
			MaxAIGenerations: 5,
			Features: datatypes.JSONMap{
				model.FeatureAutoSync:         false,
				model.FeatureAIContent:        false,
				model.FeaturePremiumTemplates: false,
				model.FeatureCustomDomain:     false,
				model.FeatureAnalytics:        false,
			},
		},
		{
			Name:             "Pro",
			Description:      "For developers who ship",
			PriceMonthly:     1200,
			PriceYearly:      12000,
			MaxPortfolios:    10,
			MaxAIGenerations: 100,
			Features: datatypes.JSONMap{
				model.FeatureAutoSync:         true,
				model.FeatureAIContent:        true,
				model.FeaturePremiumTemplates: true,
				model.FeatureCustomDomain:     false,
				model.FeatureAnalytics:        true,
			},
			StripeProductID:      "prod_codecanvas_pro",
			StripeMonthlyPriceID: "price_codecanvas_pro_monthly",
			StripeYearlyPriceID:  "price_codecanvas_pro_yearly",
		},
		{
			Name:             "Enterprise",
			Description:      "Teams, agencies and custom domains",
			PriceMonthly:     2900,
			PriceYearly:      29000,
			MaxPortfolios:    model.UnlimitedQuota,
			MaxAIGenerations: model.UnlimitedQuota,
			Features: datatypes.JSONMap{
				model.FeatureAutoSync:         true,
				model.FeatureAIContent:        true,
				model.FeaturePremiumTemplates: true,
				model.FeatureCustomDomain:     true,
				model.FeatureAnalytics:        true,
			},
			StripeProductID:      "prod_codecanvas_enterprise",
			StripeMonthlyPriceID: "price_codecanvas_enterprise_monthly",
			StripeYearlyPriceID:  "price_codecanvas_enterprise_yearly",
		},
	}

	for _, plan := range plans {
		result := db.FirstOrCreate(&plan, model.Plan{Name: plan.Name})
		if result.Error != nil {
			log.Printf("Error creating plan %s: %v", plan.Name, result.Error)
		}
	}

	log.Println("Subscription plans seeded successfully!")
}
