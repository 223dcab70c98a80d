package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/controllers"
	"github.com/meinhoongagan/petrent-api/middleware"
)

// SetupAdminRoutes configures moderation routes; every route requires the
// admin role.
func SetupAdminRoutes(api fiber.Router) {
	admin := api.Group("/admin", middleware.Protected(), middleware.RequireRole("admin"))

	// Users
	admin.Get("/users", controllers.ListUsers)
	admin.Put("/users/:id/role", controllers.UpdateUserRole)
	admin.Put("/users/:id/active", controllers.SetUserActive)

	admin.Put("/pets/:id/featured", controllers.SetPetFeatured)

	admin.Get("/reports", controllers.AdminListReports)
	admin.Put("/reports/:id/status", controllers.AdminUpdateReportStatus)

	admin.Put("/payouts/:id/status", controllers.UpdatePayoutStatus)
}
