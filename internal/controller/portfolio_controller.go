package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"codecanvas_backend/internal/model"
	"codecanvas_backend/pkg/database"
)

type PortfolioInput struct {
	Title       string                 `json:"title" validate:"required,max=120"`
	Template    model.PortfolioTemplate `json:"template" validate:"required,oneof=minimal developer designer creative"`
	Description string                 `json:"description"`
	Content     map[string]interface{} `json:"content"`
}

// CreatePortfolio creates a portfolio. The route runs behind
// CheckPortfolioLimit; usage counters are reconciled afterward because
// the counter update is not transactional with the insert.
func CreatePortfolio(c *fiber.Ctx) error {
	claims := currentClaims(c)
	input := new(PortfolioInput)

	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if err := validate.Struct(input); err != nil {
		return validationError(c, err)
	}

	premium := input.Template == model.TemplateCreative || input.Template == model.TemplateDesigner
	if premium {
		snap, err := entService.Load(claims.UserID)
		if err != nil || !snap.HasFeature(model.FeaturePremiumTemplates) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "This template requires a higher subscription plan",
			})
		}
	}

	portfolio := model.Portfolio{
		UserID:      claims.UserID,
		Title:       input.Title,
		Template:    input.Template,
		Description: input.Description,
		Content:     datatypes.JSONMap(input.Content),
	}

	if err := database.GetDB().Create(&portfolio).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create portfolio",
		})
	}

	if err := entService.Reconcile(claims.UserID); err != nil {
		log.Printf("Could not reconcile usage for user %d: %v", claims.UserID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(portfolio)
}

func UpdatePortfolio(c *fiber.Ctx) error {
	id := c.Params("id")
	input := new(PortfolioInput)

	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if err := validate.Struct(input); err != nil {
		return validationError(c, err)
	}

	var portfolio model.Portfolio
	if err := database.GetDB().First(&portfolio, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Portfolio not found",
		})
	}

	portfolio.Title = input.Title
	portfolio.Template = input.Template
	portfolio.Description = input.Description
	if input.Content != nil {
		portfolio.Content = datatypes.JSONMap(input.Content)
	}

	if err := database.GetDB().Save(&portfolio).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update portfolio",
		})
	}

	return c.JSON(portfolio)
}

// DeletePortfolio removes a portfolio and refreshes usage counters so
// a freed slot becomes visible to the next entitlement check.
func DeletePortfolio(c *fiber.Ctx) error {
	claims := currentClaims(c)
	id := c.Params("id")

	if err := database.GetDB().Delete(&model.Portfolio{}, id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete portfolio",
		})
	}

	if err := entService.Reconcile(claims.UserID); err != nil {
		log.Printf("Could not reconcile usage for user %d: %v", claims.UserID, err)
	}

	return c.JSON(fiber.Map{"message": "Portfolio deleted successfully"})
}

func ListMyPortfolios(c *fiber.Ctx) error {
	claims := currentClaims(c)

	var portfolios []model.Portfolio
	if err := database.GetDB().Where("user_id = ?", claims.UserID).
		Order("updated_at desc").
		Find(&portfolios).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch portfolios",
		})
	}

	return c.JSON(portfolios)
}

func PublishPortfolio(c *fiber.Ctx) error {
	id := c.Params("id")

	var portfolio model.Portfolio
	if err := database.GetDB().First(&portfolio, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Portfolio not found",
		})
	}

	now := time.Now()
	portfolio.Published = true
	portfolio.PublishedAt = &now

	if err := database.GetDB().Save(&portfolio).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not publish portfolio",
		})
	}

	return c.JSON(portfolio)
}

func UnpublishPortfolio(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := database.GetDB().Model(&model.Portfolio{}).
		Where("id = ?", id).
		Update("published", false).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not unpublish portfolio",
		})
	}

	return c.JSON(fiber.Map{"message": "Portfolio unpublished"})
}

// ListUserPortfolios lists a user's published portfolios for the
// public site.
func ListUserPortfolios(c *fiber.Ctx) error {
	username := c.Params("username")

	var user model.User
	if err := database.GetDB().Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch user",
		})
	}

	var portfolios []model.Portfolio
	if err := database.GetDB().Where("user_id = ? AND published = ?", user.ID, true).
		Order("published_at desc").
		Find(&portfolios).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch portfolios",
		})
	}

	return c.JSON(fiber.Map{
		"user":       user.GetPublicProfile(),
		"portfolios": portfolios,
	})
}

func GetPortfolioBySlug(c *fiber.Ctx) error {
	username := c.Params("username")
	portfolioSlug := c.Params("portfolio_slug")

	var user model.User
	if err := database.GetDB().Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch user",
		})
	}

	var portfolio model.Portfolio
	if err := database.GetDB().Where("user_id = ? AND published = ? AND slug = ?",
		user.ID, true, portfolioSlug).
		First(&portfolio).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Portfolio not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch portfolio",
		})
	}

	return c.JSON(fiber.Map{
		"user":      user.GetPublicProfile(),
		"portfolio": portfolio,
	})
}

// RecordPortfolioView stores a view event for the analytics dashboard.
func RecordPortfolioView(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid portfolio ID",
		})
	}

	view := model.PortfolioView{
		PortfolioID: uint(id),
		IP:          c.IP(),
		UserAgent:   c.Get("User-Agent"),
		Referrer:    c.Get("Referer"),
		ViewedAt:    time.Now(),
	}

	if err := database.GetDB().Create(&view).Error; err != nil {
		log.Printf("Could not record portfolio view: %v", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
