package controller

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"

	"codecanvas_backend/internal/model"
	"codecanvas_backend/pkg/billing"
	"codecanvas_backend/pkg/database"
	"codecanvas_backend/pkg/email"
)

// ListPlans returns the active plan catalog for the pricing page.
func ListPlans(c *fiber.Ctx) error {
	var plans []model.Plan
	if err := database.GetDB().Where("is_active = ?", true).
		Order("price_monthly asc").
		Find(&plans).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch plans",
		})
	}

	return c.JSON(plans)
}

// GetMySubscription returns the current subscription with the derived
// entitlement facts the frontend renders (remaining quotas, features).
func GetMySubscription(c *fiber.Ctx) error {
	claims := currentClaims(c)

	snap, err := entService.Load(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not load subscription",
		})
	}

	return c.JSON(fiber.Map{
		"subscription":             snap.Subscription,
		"usage":                    snap.Usage,
		"can_create_portfolio":     snap.CanCreatePortfolio(),
		"can_use_ai":               snap.CanUseAI(),
		"remaining_portfolios":     snap.RemainingPortfolios(),
		"remaining_ai_generations": snap.RemainingAIGenerations(),
	})
}

type CheckoutInput struct {
	PlanID   uint   `json:"plan_id" validate:"required"`
	Interval string `json:"interval" validate:"required,oneof=monthly yearly"`
}

// CreateCheckoutSession opens a Stripe-hosted checkout for a paid plan
// and returns the redirect URL. The local subscription row is untouched
// until CheckSubscription reconciles after the user returns.
func CreateCheckoutSession(c *fiber.Ctx) error {
	claims := currentClaims(c)
	input := new(CheckoutInput)

	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if err := validate.Struct(input); err != nil {
		return validationError(c, err)
	}

	var user model.User
	if err := database.GetDB().First(&user, claims.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var plan model.Plan
	if err := database.GetDB().Where("is_active = ?", true).First(&plan, input.PlanID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Plan not found",
		})
	}

	successURL := cfg.App.FrontendURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := cfg.App.FrontendURL + "/billing/cancelled"

	url, err := billing.CreateCheckoutSession(&user, &plan, input.Interval, successURL, cancelURL)
	if err != nil {
		log.Printf("Could not create checkout session for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create checkout session",
		})
	}

	return c.JSON(fiber.Map{"url": url})
}

// CheckSubscription reconciles the local subscription with Stripe. The
// frontend calls it when the user lands on the billing success page.
func CheckSubscription(c *fiber.Ctx) error {
	claims := currentClaims(c)

	var user model.User
	if err := database.GetDB().First(&user, claims.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	sub, err := billing.CheckSubscriptionStatus(&user)
	if err != nil {
		log.Printf("Could not check subscription for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not check subscription status",
		})
	}

	if sub.Plan.PriceMonthly > 0 && sub.Status == model.SubscriptionStatusActive {
		go func() {
			err := email.GlobalEmailService.SendSubscriptionStartedEmail(
				user.Email, user.GetFullName(), sub.Plan.Name,
				float64(sub.Plan.PriceMonthly)/100, "USD",
				sub.Plan.MaxPortfolios, derefTime(sub.CurrentPeriodEnd), false,
			)
			if err != nil {
				log.Printf("Could not send subscription email: %v", err)
			}
		}()
	}

	if _, err := entService.Refresh(user.ID); err != nil {
		log.Printf("Could not refresh entitlements for user %d: %v", user.ID, err)
	}

	return c.JSON(sub)
}

// CustomerPortal returns a Stripe billing-portal URL.
func CustomerPortal(c *fiber.Ctx) error {
	claims := currentClaims(c)

	var user model.User
	if err := database.GetDB().First(&user, claims.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	url, err := billing.OpenCustomerPortal(&user, cfg.App.FrontendURL+"/settings/billing")
	if err != nil {
		if err == billing.ErrNoCustomer {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No billing account found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not open customer portal",
		})
	}

	return c.JSON(fiber.Map{"url": url})
}

// CancelSubscription flags the subscription to end at the period
// boundary. The plan stays entitling until then.
func CancelSubscription(c *fiber.Ctx) error {
	claims := currentClaims(c)

	var sub model.UserSubscription
	err := database.GetDB().Preload("Plan").
		Where("user_id = ?", claims.UserID).
		First(&sub).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No subscription found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch subscription",
		})
	}

	if sub.StripeSubID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Free plan cannot be cancelled",
		})
	}

	if err := billing.CancelSubscription(&sub); err != nil {
		log.Printf("Could not cancel subscription for user %d: %v", claims.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not cancel subscription",
		})
	}

	var user model.User
	if err := database.GetDB().First(&user, claims.UserID).Error; err == nil {
		go func() {
			err := email.GlobalEmailService.SendSubscriptionCancelledEmail(
				user.Email, user.GetFullName(), sub.Plan.Name, derefTime(sub.CurrentPeriodEnd),
			)
			if err != nil {
				log.Printf("Could not send cancellation email: %v", err)
			}
		}()
	}

	return c.JSON(fiber.Map{
		"message":    "Subscription will be cancelled at the end of the billing period",
		"period_end": sub.CurrentPeriodEnd,
	})
}

// HandleStripeWebhook processes Stripe subscription lifecycle events.
// Signature verification rejects anything not signed with the endpoint
// secret.
func HandleStripeWebhook(c *fiber.Ctx) error {
	event, err := webhook.ConstructEvent(c.Body(), c.Get("Stripe-Signature"), cfg.Stripe.WebhookSecret)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook signature",
		})
	}

	switch event.Type {
	case "customer.subscription.updated", "customer.subscription.deleted":
		var remote stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &remote); err != nil {
			log.Printf("Could not parse webhook subscription: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid event payload",
			})
		}
		syncSubscriptionFromWebhook(&remote)
	default:
		// Other event types are acknowledged and ignored.
	}

	return c.JSON(fiber.Map{"received": true})
}

// syncSubscriptionFromWebhook re-runs the Stripe reconciliation for the
// user owning the event's subscription. Unknown subscriptions are
// logged and dropped; Stripe retries are pointless for them.
func syncSubscriptionFromWebhook(remote *stripe.Subscription) {
	var sub model.UserSubscription
	err := database.GetDB().Where("stripe_subscription_id = ?", remote.ID).First(&sub).Error
	if err != nil {
		log.Printf("Webhook for unknown subscription %s: %v", remote.ID, err)
		return
	}

	var user model.User
	if err := database.GetDB().First(&user, sub.UserID).Error; err != nil {
		log.Printf("Webhook subscription %s has no user: %v", remote.ID, err)
		return
	}

	if _, err := billing.CheckSubscriptionStatus(&user); err != nil {
		log.Printf("Could not sync subscription %s: %v", remote.ID, err)
		return
	}
	if _, err := entService.Refresh(user.ID); err != nil {
		log.Printf("Could not refresh entitlements for user %d: %v", user.ID, err)
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
