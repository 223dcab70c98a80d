package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/controllers"
	"github.com/meinhoongagan/petrent-api/middleware"
)

func SetupHealthRecordRoutes(api fiber.Router) {
	records := api.Group("/health-records", middleware.Protected())
	records.Get("/recent-activity", controllers.RecentHealthActivity)
	records.Post("/pets/:pet_id", controllers.CreateHealthRecord)
	records.Get("/pets/:pet_id", controllers.ListHealthRecords)
	records.Get("/:id", controllers.GetHealthRecord)
	records.Put("/:id", controllers.UpdateHealthRecord)
	records.Delete("/:id", controllers.DeleteHealthRecord)
	records.Post("/:id/attachments", controllers.UploadHealthAttachments)
}

func SetupCareInstructionRoutes(api fiber.Router) {
	care := api.Group("/care-instructions", middleware.Protected())
	care.Post("/pets/:pet_id", controllers.CreateCareInstruction)
	care.Get("/pets/:pet_id", controllers.GetCareInstruction)
	care.Put("/pets/:pet_id", controllers.UpdateCareInstruction)
	care.Delete("/pets/:pet_id", controllers.DeleteCareInstruction)
}
