package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/controllers"
	"github.com/meinhoongagan/petrent-api/middleware"
)

// SetupBookingRoutes configures all booking related routes
func SetupBookingRoutes(api fiber.Router) {
	bookings := api.Group("/bookings", middleware.Protected())
	bookings.Post("/", controllers.CreateBooking)
	bookings.Get("/", controllers.GetBookings)
	bookings.Get("/:id", controllers.GetBooking)
	bookings.Put("/:id/status", controllers.UpdateBookingStatus)
}
