package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"codecanvas_backend/internal/model"
	"codecanvas_backend/pkg/database"
	"codecanvas_backend/pkg/entitlement"
	"codecanvas_backend/pkg/utils/jwt"
)

// loadSnapshot fetches the entitlement snapshot for the caller. A load
// failure denies by returning a nil snapshot; permission checks fail
// closed on nil.
func loadSnapshot(ent *entitlement.Service, c *fiber.Ctx) *entitlement.Snapshot {
	claims := c.Locals("user").(*jwt.Claims)

	snap, err := ent.Load(claims.UserID)
	if err != nil {
		log.Printf("Could not load entitlements for user %d: %v", claims.UserID, err)
		return nil
	}
	return snap
}

// CheckPortfolioLimit blocks portfolio creation when the plan limit is
// reached. The actual row count is consulted alongside the cached
// counter so a stale counter cannot grant an extra slot.
func CheckPortfolioLimit(ent *entitlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)

		snap := loadSnapshot(ent, c)
		if snap == nil || !snap.CanCreatePortfolio() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":     "You have reached your portfolio limit. Please upgrade your plan.",
				"remaining": 0,
			})
		}

		plan := snap.Subscription.Plan
		if plan.MaxPortfolios != model.UnlimitedQuota {
			var actual int64
			database.GetDB().Model(&model.Portfolio{}).
				Where("user_id = ?", claims.UserID).Count(&actual)
			if int(actual) >= plan.MaxPortfolios {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error":         "You have reached your portfolio limit. Please upgrade your plan.",
					"current_count": actual,
					"max_limit":     plan.MaxPortfolios,
				})
			}
		}

		return c.Next()
	}
}

// CheckAIQuota blocks AI generation without the ai_content capability
// or with an exhausted generation quota.
func CheckAIQuota(ent *entitlement.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := loadSnapshot(ent, c)
		if snap == nil || !snap.CanGenerateAI() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "AI content generation is not available on your plan",
			})
		}
		return c.Next()
	}
}

// CheckFeatureAccess gates a route behind a plan capability flag.
func CheckFeatureAccess(ent *entitlement.Service, feature string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := loadSnapshot(ent, c)
		if snap == nil || !snap.HasFeature(feature) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "This feature requires a higher subscription plan",
			})
		}
		return c.Next()
	}
}
