package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"codecanvas_backend/pkg/ai"
	"codecanvas_backend/pkg/config"
	"codecanvas_backend/pkg/entitlement"
	"codecanvas_backend/pkg/export"
	"codecanvas_backend/pkg/utils/jwt"
	"codecanvas_backend/pkg/utils/storage"
)

// Handles injected once at startup; fiber handlers stay package
// functions.
var (
	cfg         *config.Config
	entService  *entitlement.Service
	exportQueue *export.Queue
	aiClient    *ai.Client
	store       *storage.Client

	validate = validator.New()
)

// Init wires the controller package to its collaborators.
func Init(c *config.Config, ent *entitlement.Service, queue *export.Queue, aiCli *ai.Client, st *storage.Client) {
	cfg = c
	entService = ent
	exportQueue = queue
	aiClient = aiCli
	store = st
}

func currentClaims(c *fiber.Ctx) *jwt.Claims {
	return c.Locals("user").(*jwt.Claims)
}

func validationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}
