package server

import (
	"time"

	"campusconnect/internal/auth"
	"campusconnect/internal/config"
	"campusconnect/internal/handlers"
	"campusconnect/internal/middleware"
	"campusconnect/internal/repositories"
	"campusconnect/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dependencies are the resources main opens before building the app. Locker
// and Events may be nil.
type Dependencies struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *logrus.Logger
	Locker services.Locker
	Events services.EventPublisher
}

// New wires repositories, services and handlers into a Fiber app.
func New(deps Dependencies) *fiber.App {
	cfg := deps.Config
	log := deps.Logger

	// --- Repositories ---
	productRepo := repositories.NewGORMProductRepository(deps.DB)
	supplierRepo := repositories.NewGORMSupplierRepository(deps.DB)
	cartRepo := repositories.NewGORMCartRepository(deps.DB)
	orderRepo := repositories.NewGORMOrderRepository(deps.DB)

	// --- Services ---
	pricing := services.NewPricingPolicy(cfg.Pricing)
	cartService := services.NewCartService(cartRepo, productRepo, log)
	reconciler := services.NewReconciler(cartRepo, orderRepo, cfg.Checkout.ReconcileWindow, log)
	coordinator := services.NewCheckoutCoordinator(
		cartRepo,
		cartService,
		services.NewCartPartitioner(pricing),
		services.NewOrderFactory(orderRepo, pricing),
		reconciler,
		pricing,
		deps.Locker,
		deps.Events,
		services.CheckoutOptions{
			Parallelism: cfg.Checkout.Parallelism,
			LockTTL:     cfg.Checkout.LockTTL,
		},
		log,
	)
	lifecycle := services.NewOrderLifecycle(orderRepo, deps.Events, log)
	queries := services.NewOrderQueryService(orderRepo)
	actors := services.NewActorResolver(supplierRepo)
	tokens := auth.NewTokenService(cfg.JWT.Secret)

	// --- Handlers ---
	cartHandler := handlers.NewCartHandler(cartService, reconciler, log)
	checkoutHandler := handlers.NewCheckoutHandler(coordinator, log)
	orderHandler := handlers.NewOrderHandler(lifecycle, queries, actors, log)

	app := fiber.New(fiber.Config{
		AppName:               "campusconnect",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: log.Writer()}))

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "connected",
			"rabbitmq": "disabled",
			"redis":    "disabled",
		}
		if deps.Events != nil {
			status["rabbitmq"] = "connected"
		}
		if deps.Locker != nil {
			status["redis"] = "connected"
		}
		code := fiber.StatusOK
		if sqlDB, err := deps.DB.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(status)
	})

	apiV1 := app.Group("/api/v1", middleware.AuthRequired(tokens, log))
	cartHandler.RegisterRoutes(apiV1)
	checkoutHandler.RegisterRoutes(apiV1)
	orderHandler.RegisterRoutes(apiV1)

	return app
}
