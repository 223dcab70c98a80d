package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/controllers"
	"github.com/meinhoongagan/petrent-api/middleware"
)

// SetupAuthRoutes configures all authentication related routes
func SetupAuthRoutes(api fiber.Router) {
	auth := api.Group("/auth")

	// Public routes
	auth.Post("/register", controllers.Register)
	auth.Post("/login", controllers.Login)
	auth.Post("/refresh-token", controllers.RefreshToken)
	auth.Post("/forgot-password", controllers.ForgotPassword)
	auth.Get("/verify-reset-token/:token", controllers.VerifyResetToken)
	auth.Post("/reset-password", controllers.ResetPassword)

	// Google OAuth
	auth.Get("/google", controllers.GoogleAuthURL)
	auth.Post("/google/login", controllers.GoogleLogin)
	auth.Get("/google/callback", controllers.GoogleCallback)

	// Protected routes
	auth.Get("/me", middleware.Protected(), controllers.GetMe)
	auth.Post("/logout", middleware.Protected(), controllers.Logout)
	auth.Post("/change-password", middleware.Protected(), controllers.ChangePassword)
	auth.Get("/sessions", middleware.Protected(), controllers.ListSessions)
	auth.Delete("/sessions", middleware.Protected(), controllers.RevokeOtherSessions)
	auth.Delete("/sessions/:id", middleware.Protected(), controllers.RevokeSession)
}
