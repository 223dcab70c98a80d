package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/controllers"
	"github.com/meinhoongagan/petrent-api/controllers/owner"
	"github.com/meinhoongagan/petrent-api/middleware"
)

func SetupTransactionRoutes(api fiber.Router) {
	transactions := api.Group("/transactions", middleware.Protected())
	transactions.Get("/", controllers.GetTransactions)
	transactions.Get("/wallet", controllers.GetWalletInfo)
	transactions.Post("/payouts", controllers.RequestPayout)
	transactions.Get("/payouts", controllers.GetPayouts)
	transactions.Get("/:id", controllers.GetTransaction)
}

func SetupAnalyticsRoutes(api fiber.Router) {
	analytics := api.Group("/analytics", middleware.Protected())
	analytics.Get("/earnings", owner.GetEarnings)
	analytics.Get("/earnings/monthly", owner.GetMonthlyEarnings)
	analytics.Get("/owner-metrics", owner.GetOwnerMetrics)
	analytics.Get("/top-pets", owner.GetTopPets)
}
