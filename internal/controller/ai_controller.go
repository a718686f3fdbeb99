package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"

	"codecanvas_backend/internal/model"
	"codecanvas_backend/pkg/ai"
	"codecanvas_backend/pkg/database"
)

type GenerateContentInput struct {
	Kind  string `json:"kind" validate:"required,oneof=bio project_description skills_summary"`
	Input string `json:"input" validate:"required,max=8000"`
}

// GenerateContent produces one piece of portfolio copy. The route runs
// behind CheckAIQuota; the generation is logged and counted afterward.
func GenerateContent(c *fiber.Ctx) error {
	claims := currentClaims(c)
	input := new(GenerateContentInput)

	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if err := validate.Struct(input); err != nil {
		return validationError(c, err)
	}

	content, err := aiClient.GenerateContent(input.Kind, input.Input)
	if err != nil {
		log.Printf("AI generation failed for user %d: %v", claims.UserID, err)
		if errors.Is(err, ai.ErrExternalService) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "AI provider request failed",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not generate content",
		})
	}

	recordGeneration(claims.UserID, nil, input.Kind, len(input.Input), len(content))

	return c.JSON(fiber.Map{
		"kind":    input.Kind,
		"content": content,
	})
}

type GeneratePortfolioInput struct {
	Sections []string `json:"sections" validate:"required,min=1,max=10,dive,max=50"`
	Material string   `json:"material" validate:"required,max=16000"`
}

// GeneratePortfolioContent drafts section copy for a whole portfolio
// and merges it into the portfolio's content document.
func GeneratePortfolioContent(c *fiber.Ctx) error {
	claims := currentClaims(c)
	input := new(GeneratePortfolioInput)

	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if err := validate.Struct(input); err != nil {
		return validationError(c, err)
	}

	id := c.Params("id")
	var portfolio model.Portfolio
	if err := database.GetDB().First(&portfolio, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Portfolio not found",
		})
	}

	drafts, err := aiClient.GeneratePortfolioContent(portfolio.Title, input.Sections, input.Material)
	if err != nil {
		log.Printf("AI portfolio draft failed for user %d: %v", claims.UserID, err)
		if errors.Is(err, ai.ErrExternalService) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "AI provider request failed",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not generate portfolio content",
		})
	}

	if portfolio.Content == nil {
		portfolio.Content = datatypes.JSONMap{}
	}
	outputChars := 0
	for section, text := range drafts {
		portfolio.Content[section] = text
		outputChars += len(text)
	}

	if err := database.GetDB().Save(&portfolio).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save portfolio content",
		})
	}

	recordGeneration(claims.UserID, &portfolio.ID, model.AIGenerationPortfolio, len(input.Material), outputChars)

	return c.JSON(portfolio)
}

// ListMyGenerations returns the user's generation log for the usage
// page.
func ListMyGenerations(c *fiber.Ctx) error {
	claims := currentClaims(c)

	var generations []model.AIGeneration
	if err := database.GetDB().Where("user_id = ?", claims.UserID).
		Order("created_at desc").
		Limit(50).
		Find(&generations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch generations",
		})
	}

	return c.JSON(generations)
}

// recordGeneration logs the call and bumps the usage counter through a
// reconcile so the counter matches the log rows.
func recordGeneration(userID uint, portfolioID *uint, kind string, promptChars, outputChars int) {
	row := model.AIGeneration{
		UserID:      userID,
		PortfolioID: portfolioID,
		Kind:        kind,
		PromptChars: promptChars,
		OutputChars: outputChars,
	}
	if err := database.GetDB().Create(&row).Error; err != nil {
		log.Printf("Could not log AI generation for user %d: %v", userID, err)
		return
	}

	if err := entService.Reconcile(userID); err != nil {
		log.Printf("Could not reconcile usage for user %d: %v", userID, err)
	}
}
