package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"

	"codecanvas_backend/internal/controller"
	"codecanvas_backend/internal/middleware"
	"codecanvas_backend/internal/model"
	"codecanvas_backend/pkg/ai"
	"codecanvas_backend/pkg/billing"
	"codecanvas_backend/pkg/config"
	"codecanvas_backend/pkg/cron"
	"codecanvas_backend/pkg/database"
	"codecanvas_backend/pkg/email"
	"codecanvas_backend/pkg/entitlement"
	"codecanvas_backend/pkg/export"
	"codecanvas_backend/pkg/seed"
	"codecanvas_backend/pkg/utils/jwt"
	"codecanvas_backend/pkg/utils/storage"
)

func setupRoutes(app *fiber.App, ent *entitlement.Service) {
	api := app.Group("/api")

	// Auth Routes
	auth := api.Group("/auth")
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/request-reset", controller.RequestPasswordReset)
	auth.Post("/reset-password", controller.ResetPassword)

	// Public portfolio routes
	public := api.Group("/p")
	public.Get("/:username", controller.ListUserPortfolios)
	public.Get("/:username/:portfolio_slug", controller.GetPortfolioBySlug)

	// Portfolio view recording
	api.Post("/portfolios/:id/view", controller.RecordPortfolioView)

	// Protected routes
	protected := api.Group("/", middleware.AuthMiddleware())
	protected.Get("/me", controller.GetMe)
	protected.Put("/me", controller.UpdateProfile)
	protected.Post("/me/avatar", controller.UploadAvatar)

	// Portfolio routes with entitlement checks
	portfolios := protected.Group("/portfolios")
	portfolios.Get("/my", controller.ListMyPortfolios)
	portfolios.Post("/", middleware.CheckPortfolioLimit(ent), controller.CreatePortfolio)
	portfolios.Put("/:id", middleware.CheckPortfolioOwnership(), controller.UpdatePortfolio)
	portfolios.Delete("/:id", middleware.CheckPortfolioOwnership(), controller.DeletePortfolio)
	portfolios.Post("/:id/publish", middleware.CheckPortfolioOwnership(), controller.PublishPortfolio)
	portfolios.Post("/:id/unpublish", middleware.CheckPortfolioOwnership(), controller.UnpublishPortfolio)
	portfolios.Post("/:id/cover", middleware.CheckPortfolioOwnership(), controller.UploadPortfolioCover)

	// Export routes
	portfolios.Post("/:id/exports", middleware.CheckPortfolioOwnership(), controller.StartExport)
	exports := protected.Group("/exports")
	exports.Get("/", controller.ListMyExports)
	exports.Get("/:export_id", controller.GetExport)
	exports.Get("/:export_id/wait", controller.WaitExport)

	// AI routes, feature- and quota-gated
	aiRoutes := protected.Group("/ai")
	aiRoutes.Post("/generate", middleware.CheckAIQuota(ent), controller.GenerateContent)
	aiRoutes.Post("/portfolios/:id/draft",
		middleware.CheckPortfolioOwnership(), middleware.CheckAIQuota(ent),
		controller.GeneratePortfolioContent)
	aiRoutes.Get("/generations", controller.ListMyGenerations)

	// Integration routes
	integrations := protected.Group("/integrations")
	integrations.Get("/", controller.ListIntegrations)
	integrations.Post("/", controller.ConnectIntegration)
	integrations.Delete("/:provider", controller.DisconnectIntegration)
	integrations.Post("/:provider/sync",
		middleware.CheckFeatureAccess(ent, model.FeatureAutoSync), controller.SyncIntegration)
	integrations.Get("/:provider/data", controller.GetIntegrationData)

	// Dashboard routes
	dashboard := api.Group("/dashboard", middleware.AuthMiddleware())
	dashboard.Get("/stats", controller.GetDashboardStats)
	dashboard.Get("/portfolios/:id/stats",
		middleware.CheckPortfolioOwnership(),
		middleware.CheckFeatureAccess(ent, model.FeatureAnalytics),
		controller.GetPortfolioStats)

	// Subscription routes
	subscriptions := api.Group("/subscriptions")
	subscriptions.Get("/plans", controller.ListPlans)

	subProtected := subscriptions.Use(middleware.AuthMiddleware())
	subProtected.Get("/my", controller.GetMySubscription)
	subProtected.Post("/create-checkout-session", controller.CreateCheckoutSession)
	subProtected.Post("/check", controller.CheckSubscription)
	subProtected.Post("/portal", controller.CustomerPortal)
	subProtected.Post("/cancel-subscription", controller.CancelSubscription)

	// Stripe webhook
	api.Post("/webhook", controller.HandleStripeWebhook)
}

func main() {
	cfg := config.Load()

	if err := email.InitEmailService(cfg.App.ResendAPIKey); err != nil {
		log.Fatal("Could not initialize email service:", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}

	database.InitDB(cfg.Database.URL)
	err := database.MigrateDatabase(
		&model.User{},
		&model.LoginHistory{},
		&model.Plan{},
		&model.UserSubscription{},
		&model.UserUsage{},
		&model.Portfolio{},
		&model.PortfolioView{},
		&model.PortfolioExport{},
		&model.IntegrationAccount{},
		&model.GithubProfile{},
		&model.GithubRepo{},
		&model.LinkedinProfile{},
		&model.MediumPost{},
		&model.BehanceProject{},
		&model.DribbbleShot{},
		&model.AIGeneration{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	seed.SeedSubscriptionPlans(database.GetDB())

	billing.Init(cfg.Stripe.SecretKey)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
	})

	jwt.Init(cfg.JWT.Secret)

	ent := entitlement.NewServiceFromDB(database.GetDB())
	store := storage.NewClient(cfg.Storage)
	aiClient := ai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)

	processor := export.NewProcessor(database.GetDB(), store)
	exportQueue := export.NewQueue(redisClient, processor, 2)
	exportQueue.Start()
	defer exportQueue.Stop()

	controller.Init(cfg, ent, exportQueue, aiClient, store)

	cron.InitSubscriptionExpiryCron()
	cron.InitUsageReconcileCron(ent)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app, ent)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
