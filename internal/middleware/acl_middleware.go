package middleware

import (
	"github.com/gofiber/fiber/v2"

	"codecanvas_backend/internal/model"
	"codecanvas_backend/pkg/database"
	"codecanvas_backend/pkg/utils/jwt"
)

// CheckPortfolioOwnership rejects requests against portfolios the
// caller does not own.
func CheckPortfolioOwnership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)
		portfolioID := c.Params("id")

		var portfolio model.Portfolio
		if err := database.GetDB().First(&portfolio, portfolioID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Portfolio not found",
			})
		}

		if portfolio.UserID != claims.UserID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You don't have permission to access this portfolio",
			})
		}

		return c.Next()
	}
}
