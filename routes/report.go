package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/controllers"
	"github.com/meinhoongagan/petrent-api/middleware"
)

func SetupReportRoutes(api fiber.Router) {
	reports := api.Group("/reports", middleware.Protected())
	reports.Get("/my-reports", controllers.GetMyReports)
	reports.Get("/:id", controllers.GetReport)
	reports.Delete("/:id", controllers.DeleteReport)
	reports.Post("/:entity_type/:entity_id", controllers.CreateReport)
}
