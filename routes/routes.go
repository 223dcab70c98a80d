package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/controllers"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/metrics"
	"github.com/meinhoongagan/petrent-api/middleware"
)

// NewApp builds the fiber app with the shared middleware chain and every
// route registered.
func NewApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      controllers.ServiceName,
		BodyLimit:    int(cfg.MaxFileSize) * 11,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.RequestLogger())
	app.Use(metrics.Middleware())
	limit, stopLimiter := middleware.RateLimit(cfg.RateLimitPerMinute, "/health", "/metrics")
	app.Use(limit)
	app.Hooks().OnShutdown(func() error {
		stopLimiter()
		return nil
	})

	Setup(app)
	return app
}

// Setup registers the health, metrics and /api routes.
func Setup(app *fiber.App) {
	app.Get("/health", controllers.HealthCheck)
	app.Get("/metrics", metrics.FiberHandler())

	api := app.Group("/api")
	api.Get("/", controllers.APIInfo)

	SetupAuthRoutes(api)
	SetupUserRoutes(api)
	SetupPetRoutes(api)
	SetupBookingRoutes(api)
	SetupConversationRoutes(api)
	SetupNotificationRoutes(api)
	SetupReviewRoutes(api)
	SetupReportRoutes(api)
	SetupCalendarRoutes(api)
	SetupHealthRecordRoutes(api)
	SetupCareInstructionRoutes(api)
	SetupTransactionRoutes(api)
	SetupAnalyticsRoutes(api)
	SetupAdminRoutes(api)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, message = fe.Code, fe.Message
	} else {
		logger.Log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}
