package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/controllers"
	"github.com/meinhoongagan/petrent-api/middleware"
)

func SetupUserRoutes(api fiber.Router) {
	users := api.Group("/users")

	users.Get("/username-available", controllers.UsernameAvailable)

	me := users.Group("/me", middleware.Protected())
	me.Get("/", controllers.GetMe)
	me.Patch("/", controllers.UpdateProfile)
	me.Delete("/", controllers.DeactivateAccount)
	me.Put("/avatar", controllers.UploadAvatar)
	me.Delete("/avatar", controllers.DeleteAvatar)
	me.Get("/privacy", controllers.GetPrivacySettings)
	me.Patch("/privacy", controllers.UpdatePrivacySettings)

	users.Get("/dashboard-stats", middleware.Protected(), controllers.GetDashboardStats)
	users.Get("/wallet/balance", middleware.Protected(), controllers.GetWalletBalance)
	users.Put("/wallet", middleware.Protected(), controllers.UpdateWallet)

	// Public profile
	users.Get("/:id", controllers.GetPublicProfile)
}
