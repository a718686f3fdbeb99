package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"codecanvas_backend/internal/model"
	"codecanvas_backend/pkg/database"
	"codecanvas_backend/pkg/utils/validation"
)

// UploadAvatar replaces the user's profile picture.
func UploadAvatar(c *fiber.Ctx) error {
	claims := currentClaims(c)

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Image file is required",
		})
	}

	url, err := store.UploadImage(c.Context(), file, claims.Username, "avatar")
	if err != nil {
		return uploadError(c, err)
	}

	if err := database.GetDB().Model(&model.User{}).
		Where("id = ?", claims.UserID).
		Update("avatar", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update avatar",
		})
	}

	return c.JSON(fiber.Map{"url": url})
}

// UploadPortfolioCover stores a cover image for one portfolio.
func UploadPortfolioCover(c *fiber.Ctx) error {
	claims := currentClaims(c)
	id := c.Params("id")

	var portfolio model.Portfolio
	if err := database.GetDB().First(&portfolio, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Portfolio not found",
		})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Image file is required",
		})
	}

	url, err := store.UploadImage(c.Context(), file, claims.Username, "cover")
	if err != nil {
		return uploadError(c, err)
	}

	if err := database.GetDB().Model(&portfolio).
		Update("cover_image", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update cover image",
		})
	}

	return c.JSON(fiber.Map{"url": url})
}

func uploadError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, validation.ErrFileSize),
		errors.Is(err, validation.ErrFileType),
		errors.Is(err, validation.ErrFileRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		log.Printf("Upload failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not upload image",
		})
	}
}
