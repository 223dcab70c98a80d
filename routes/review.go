package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/controllers"
	"github.com/meinhoongagan/petrent-api/middleware"
)

// SetupReviewRoutes registers review routes. The two-segment entity routes
// go last so /pending, /user/... and /:id/helpful are matched first.
func SetupReviewRoutes(api fiber.Router) {
	reviews := api.Group("/reviews")

	reviews.Get("/pending", middleware.Protected(), controllers.GetPendingReviews)
	reviews.Get("/user/:user_id/written", middleware.OptionalAuth(), controllers.GetWrittenReviews)
	reviews.Post("/:id/helpful", middleware.Protected(), controllers.MarkReviewHelpful)
	reviews.Put("/:id", middleware.Protected(), controllers.UpdateReview)
	reviews.Delete("/:id", middleware.Protected(), controllers.DeleteReview)

	reviews.Get("/:entity_type/:entity_id/summary", controllers.GetReviewSummary)
	reviews.Get("/:entity_type/:entity_id", controllers.GetReviews)
	reviews.Post("/:entity_type/:entity_id", middleware.Protected(), controllers.CreateReview)
}
