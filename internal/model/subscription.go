package model

import (
	"time"

	"gorm.io/gorm"
)

// Subscription lifecycle states as reported by the billing provider.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// UserSubscription binds a user to a plan. The unique index on UserID
// guarantees at most one row per user; first access creates a Free row.
type UserSubscription struct {
	gorm.Model
	UserID            uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	PlanID            uint       `json:"plan_id" gorm:"not null"`
	Status            string     `json:"status" gorm:"default:'active'"`
	StripeCustomerID  string     `json:"stripe_customer_id"`
	StripeSubID       string     `json:"stripe_subscription_id"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end" gorm:"default:false"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
	Plan Plan `json:"plan" gorm:"foreignKey:PlanID"`
}

func (s *UserSubscription) TableName() string {
	return "user_subscriptions"
}

// IsEntitling reports whether the subscription grants its plan's
// entitlements in its current lifecycle state.
func (s *UserSubscription) IsEntitling() bool {
	switch s.Status {
	case SubscriptionStatusActive, SubscriptionStatusTrialing, SubscriptionStatusPastDue:
		return true
	default:
		return false
	}
}
