package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/controllers"
	"github.com/meinhoongagan/petrent-api/middleware"
)

func SetupNotificationRoutes(api fiber.Router) {
	notifications := api.Group("/notifications", middleware.Protected())

	notifications.Get("/", controllers.GetNotifications)
	notifications.Get("/unread-count", controllers.GetUnreadCount)
	notifications.Put("/read-all", controllers.MarkAllNotificationsRead)
	notifications.Put("/read", controllers.MarkNotificationsRead)
	notifications.Get("/settings", controllers.GetNotificationSettings)
	notifications.Put("/settings", controllers.UpdateNotificationSettings)
	notifications.Put("/:id/read", controllers.MarkNotificationRead)
	notifications.Delete("/:id", controllers.DeleteNotification)
}
