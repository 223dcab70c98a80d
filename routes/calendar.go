package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/controllers"
	"github.com/meinhoongagan/petrent-api/middleware"
)

// SetupCalendarRoutes configures blocked dates and availability lookups
func SetupCalendarRoutes(api fiber.Router) {
	calendar := api.Group("/calendar")

	calendar.Get("/pets/:pet_id", controllers.GetPetCalendar)
	calendar.Get("/availability/:pet_id", controllers.CheckPetAvailability)
	calendar.Get("/my-schedule", middleware.Protected(), controllers.GetMySchedule)

	calendar.Post("/pets/:pet_id/blocked-dates", middleware.Protected(), controllers.CreateBlockedDate)
	calendar.Put("/blocked-dates/:id", middleware.Protected(), controllers.UpdateBlockedDate)
	calendar.Delete("/blocked-dates/:id", middleware.Protected(), controllers.DeleteBlockedDate)
}
