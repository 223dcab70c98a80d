package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/redis"
)

const (
	ServiceName    = "Pet Rent & Earn API"
	ServiceVersion = "1.0.0"
)

// HealthCheck pings the database and reports redis state. A failed ping
// answers 503 so load balancers drop the instance.
func HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, database, code := "ok", "connected", fiber.StatusOK
	if err := db.Ping(ctx); err != nil {
		logger.Log.WithError(err).Warn("health check: database ping failed")
		status, database, code = "degraded", "disconnected", fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   ServiceName,
		"database":  database,
		"redis":     redis.Status(ctx),
		"version":   ServiceVersion,
	})
}

func APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": ServiceName,
		"version": ServiceVersion,
		"endpoints": fiber.Map{
			"auth":              "/api/auth",
			"users":             "/api/users",
			"pets":              "/api/pets",
			"bookings":          "/api/bookings",
			"conversations":     "/api/conversations",
			"notifications":     "/api/notifications",
			"reviews":           "/api/reviews",
			"reports":           "/api/reports",
			"calendar":          "/api/calendar",
			"health_records":    "/api/health-records",
			"care_instructions": "/api/care-instructions",
			"transactions":      "/api/transactions",
			"analytics":         "/api/analytics",
			"admin":             "/api/admin",
		},
	})
}
