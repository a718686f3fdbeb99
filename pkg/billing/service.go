package billing

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stripe/stripe-go/v74"
	portalsession "github.com/stripe/stripe-go/v74/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/customer"
	"github.com/stripe/stripe-go/v74/subscription"
	"gorm.io/gorm"

	"codecanvas_backend/internal/model"
	"codecanvas_backend/pkg/database"
)

// Billing intervals accepted by CreateCheckoutSession.
const (
	IntervalMonthly = "monthly"
	IntervalYearly  = "yearly"
)

var ErrNoCustomer = errors.New("billing: no stripe customer for user")

// Init sets the Stripe API key for the process.
func Init(secretKey string) {
	stripe.Key = secretKey
}

// findCustomerByEmail returns the first Stripe customer matching the
// user's email, or ErrNoCustomer.
func findCustomerByEmail(email string) (*stripe.Customer, error) {
	params := &stripe.CustomerListParams{}
	params.Filters.AddFilter("email", "", email)
	params.Filters.AddFilter("limit", "", "1")

	iter := customer.List(params)
	for iter.Next() {
		return iter.Customer(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNoCustomer
}

func ensureCustomer(user *model.User) (*stripe.Customer, error) {
	existing, err := findCustomerByEmail(user.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNoCustomer) {
		return nil, err
	}

	return customer.New(&stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(user.GetFullName()),
	})
}

// CreateCheckoutSession opens a hosted subscription checkout for the
// given plan and interval and returns the redirect URL. Nothing is
// mutated locally; CheckSubscriptionStatus reconciles after the user
// returns.
func CreateCheckoutSession(user *model.User, plan *model.Plan, interval, successURL, cancelURL string) (string, error) {
	priceID := plan.StripeMonthlyPriceID
	if interval == IntervalYearly {
		priceID = plan.StripeYearlyPriceID
	}
	if priceID == "" {
		return "", fmt.Errorf("plan %s has no stripe price for interval %s", plan.Name, interval)
	}

	cust, err := ensureCustomer(user)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(cust.ID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// OpenCustomerPortal returns a billing-portal URL for subscription
// self-service.
func OpenCustomerPortal(user *model.User, returnURL string) (string, error) {
	cust, err := findCustomerByEmail(user.Email)
	if err != nil {
		return "", err
	}

	sess, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(cust.ID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// entitlingStatus reports whether a remote lifecycle state still grants
// the plan's entitlements. past_due keeps entitling as a grace period
// until Stripe moves the subscription to canceled.
func entitlingStatus(status stripe.SubscriptionStatus) bool {
	sub := model.UserSubscription{Status: string(status)}
	return sub.IsEntitling()
}

// activeSubscription returns the customer's first still-entitling
// subscription, or nil. Listing with status=all keeps trialing and
// past_due subscriptions visible instead of downgrading them to Free.
func activeSubscription(customerID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{}
	params.Filters.AddFilter("customer", "", customerID)
	params.Filters.AddFilter("status", "", "all")
	params.Filters.AddFilter("limit", "", "10")

	iter := subscription.List(params)
	for iter.Next() {
		if sub := iter.Subscription(); entitlingStatus(sub.Status) {
			return sub, nil
		}
	}
	return nil, iter.Err()
}

// CheckSubscriptionStatus reconciles the local subscription row with
// Stripe after the user returns from checkout or the portal. Stripe is
// queried by the user's email; the matched price is resolved to a
// catalog plan (exact price-ID lookup, amount thresholds as fallback)
// and the row keyed by user id is upserted. No active remote
// subscription downgrades the user to Free.
func CheckSubscriptionStatus(user *model.User) (*model.UserSubscription, error) {
	db := database.GetDB()

	var plans []model.Plan
	if err := db.Where("is_active = ?", true).Find(&plans).Error; err != nil {
		return nil, err
	}

	cust, err := findCustomerByEmail(user.Email)
	if err != nil {
		if errors.Is(err, ErrNoCustomer) {
			return downgradeToFree(db, user.ID, plans)
		}
		return nil, err
	}

	remote, err := activeSubscription(cust.ID)
	if err != nil {
		return nil, err
	}
	if remote == nil {
		return downgradeToFree(db, user.ID, plans)
	}

	var priceID string
	var amount int64
	if len(remote.Items.Data) > 0 && remote.Items.Data[0].Price != nil {
		priceID = remote.Items.Data[0].Price.ID
		amount = remote.Items.Data[0].Price.UnitAmount
	}

	plan := MatchPlanByPrice(plans, priceID, amount)
	if plan == nil {
		return nil, fmt.Errorf("no catalog plan matches stripe price %s (%d)", priceID, amount)
	}

	periodEnd := time.Unix(remote.CurrentPeriodEnd, 0)
	return upsertSubscription(db, user.ID, func(sub *model.UserSubscription) {
		sub.PlanID = plan.ID
		sub.Status = string(remote.Status)
		sub.StripeCustomerID = cust.ID
		sub.StripeSubID = remote.ID
		sub.CurrentPeriodEnd = &periodEnd
		sub.CancelAtPeriodEnd = remote.CancelAtPeriodEnd
	})
}

// CancelSubscription flags the remote subscription to end at the period
// boundary and mirrors the flag locally.
func CancelSubscription(userSub *model.UserSubscription) error {
	if userSub.StripeSubID == "" {
		return errors.New("billing: subscription has no stripe id")
	}

	_, err := subscription.Update(userSub.StripeSubID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		return err
	}

	return database.GetDB().Model(userSub).
		Update("cancel_at_period_end", true).Error
}

func downgradeToFree(db *gorm.DB, userID uint, plans []model.Plan) (*model.UserSubscription, error) {
	var free *model.Plan
	for i := range plans {
		if plans[i].Name == "Free" {
			free = &plans[i]
			break
		}
	}
	if free == nil {
		return nil, errors.New("billing: free plan missing from catalog")
	}

	return upsertSubscription(db, userID, func(sub *model.UserSubscription) {
		sub.PlanID = free.ID
		sub.Status = model.SubscriptionStatusActive
		sub.StripeSubID = ""
		sub.CurrentPeriodEnd = nil
		sub.CancelAtPeriodEnd = false
	})
}

func upsertSubscription(db *gorm.DB, userID uint, apply func(*model.UserSubscription)) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	sub.UserID = userID
	apply(&sub)

	if err := db.Save(&sub).Error; err != nil {
		return nil, err
	}

	log.Printf("Reconciled subscription for user %d: plan %d status %s", userID, sub.PlanID, sub.Status)

	if err := db.Preload("Plan").First(&sub, sub.ID).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}
