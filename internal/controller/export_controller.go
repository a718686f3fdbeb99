package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"codecanvas_backend/internal/model"
	"codecanvas_backend/pkg/database"
	"codecanvas_backend/pkg/export"
)

type ExportInput struct {
	Format model.ExportFormat `json:"format" validate:"required,oneof=zip html"`
}

// StartExport creates a pending export row and enqueues the job.
// Concurrent exports of the same portfolio each get their own row and
// job; the latest completed artifact wins.
func StartExport(c *fiber.Ctx) error {
	claims := currentClaims(c)
	input := new(ExportInput)

	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if err := validate.Struct(input); err != nil {
		return validationError(c, err)
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid portfolio ID",
		})
	}

	row := model.PortfolioExport{
		UserID:      claims.UserID,
		PortfolioID: uint(id),
		Format:      input.Format,
		Status:      model.ExportStatusPending,
	}
	if err := database.GetDB().Create(&row).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create export",
		})
	}

	job := &export.Job{
		ExportID:    row.ID,
		PortfolioID: row.PortfolioID,
		UserID:      row.UserID,
		Format:      string(row.Format),
	}
	if err := exportQueue.Enqueue(c.Context(), job); err != nil {
		log.Printf("Could not enqueue export %d: %v", row.ID, err)
		database.GetDB().Model(&row).Updates(map[string]interface{}{
			"status":    model.ExportStatusFailed,
			"error_msg": "could not enqueue export job",
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not start export",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(row)
}

// GetExport returns the current state of one export. The frontend polls
// this endpoint while the job runs.
func GetExport(c *fiber.Ctx) error {
	claims := currentClaims(c)
	id := c.Params("export_id")

	var row model.PortfolioExport
	err := database.GetDB().Where("user_id = ?", claims.UserID).First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Export not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch export",
		})
	}

	return c.JSON(row)
}

// WaitExport blocks until the export reaches a terminal state or the
// poll ceiling is hit. Hitting the ceiling marks the export failed and
// reports a gateway timeout.
func WaitExport(c *fiber.Ctx) error {
	claims := currentClaims(c)
	id := c.Params("export_id")

	var row model.PortfolioExport
	err := database.GetDB().Where("user_id = ?", claims.UserID).First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Export not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch export",
		})
	}

	if row.Status.IsTerminal() {
		return c.JSON(row)
	}

	poller := export.NewPoller(database.GetDB(), export.DefaultPollConfig())
	status, err := poller.Wait(c.Context(), row.ID)
	if err != nil {
		if errors.Is(err, export.ErrTimeout) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
				"error":  "Export timed out",
				"status": status,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not wait for export",
		})
	}

	if err := database.GetDB().First(&row, row.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch export",
		})
	}
	return c.JSON(row)
}

// ListMyExports returns the user's export history, newest first.
func ListMyExports(c *fiber.Ctx) error {
	claims := currentClaims(c)

	var exports []model.PortfolioExport
	if err := database.GetDB().Where("user_id = ?", claims.UserID).
		Order("created_at desc").
		Limit(50).
		Find(&exports).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch exports",
		})
	}

	return c.JSON(exports)
}
