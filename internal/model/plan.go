package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UnlimitedQuota is the catalog sentinel for "no limit".
const UnlimitedQuota = -1

// Feature names used in Plan.Features.
const (
	FeatureAutoSync         = "auto_sync"
	FeatureAIContent        = "ai_content"
	FeaturePremiumTemplates = "premium_templates"
	FeatureCustomDomain     = "custom_domain"
	FeatureAnalytics        = "analytics"
)

// Plan is an operator-maintained catalog row. Read-only to end users.
type Plan struct {
	gorm.Model
	Name             string            `json:"name" gorm:"uniqueIndex;not null"`
	Description      string            `json:"description"`
	PriceMonthly     int64             `json:"price_monthly" gorm:"not null"` // cents
	PriceYearly      int64             `json:"price_yearly" gorm:"not null"`  // cents
	MaxPortfolios    int               `json:"max_portfolios" gorm:"not null"`
	MaxAIGenerations int               `json:"max_ai_generations" gorm:"not null"`
	Features         datatypes.JSONMap `json:"features"`
	IsActive         bool              `json:"is_active" gorm:"default:true"`

	StripeProductID      string `json:"stripe_product_id"`
	StripeMonthlyPriceID string `json:"stripe_monthly_price_id"`
	StripeYearlyPriceID  string `json:"stripe_yearly_price_id"`

	// Relations
	UserSubscriptions []UserSubscription `json:"-"`
}

func (p *Plan) TableName() string {
	return "subscription_plans"
}

// HasFeature reads a boolean capability flag from the features column.
func (p *Plan) HasFeature(name string) bool {
	if p.Features == nil {
		return false
	}
	v, ok := p.Features[name].(bool)
	return ok && v
}
