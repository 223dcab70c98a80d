package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/controllers"
	"github.com/meinhoongagan/petrent-api/middleware"
)

// SetupPetRoutes registers listing routes. Fixed paths come before /:id.
func SetupPetRoutes(api fiber.Router) {
	pets := api.Group("/pets")

	pets.Get("/", controllers.GetPets)
	pets.Get("/search", controllers.SearchPets)
	pets.Get("/nearby", controllers.NearbyPets)
	pets.Get("/featured", controllers.FeaturedPets)
	pets.Get("/my-listings", middleware.Protected(), controllers.MyListings)
	pets.Get("/favorites", middleware.Protected(), controllers.MyFavorites)

	pets.Post("/", middleware.Protected(), controllers.CreatePet)
	pets.Get("/:id", middleware.OptionalAuth(), controllers.GetPet)
	pets.Put("/:id", middleware.Protected(), controllers.UpdatePet)
	pets.Delete("/:id", middleware.Protected(), controllers.DeletePet)
	pets.Put("/:id/status", middleware.Protected(), controllers.UpdatePetStatus)
	pets.Get("/:id/analytics", middleware.Protected(), controllers.PetAnalytics)

	pets.Post("/:id/photos", middleware.Protected(), controllers.UploadPetPhotos)
	pets.Put("/:id/photos/:photo_id/primary", middleware.Protected(), controllers.SetPrimaryPhoto)
	pets.Delete("/:id/photos/:photo_id", middleware.Protected(), controllers.DeletePetPhoto)

	pets.Post("/:id/favorite", middleware.Protected(), controllers.AddFavorite)
	pets.Delete("/:id/favorite", middleware.Protected(), controllers.RemoveFavorite)
}
