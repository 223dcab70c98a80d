package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/controllers/chat"
	"github.com/meinhoongagan/petrent-api/middleware"
)

func SetupConversationRoutes(api fiber.Router) {
	conversations := api.Group("/conversations", middleware.Protected())

	conversations.Post("/", chat.StartConversation)
	conversations.Get("/", chat.ListConversations)
	conversations.Get("/:id", chat.GetConversation)
	conversations.Post("/:id/messages", chat.SendMessage)
	conversations.Delete("/:id/messages/:message_id", chat.DeleteMessage)
	conversations.Put("/:id/read", chat.MarkConversationRead)
	conversations.Put("/:id/archive", chat.ArchiveConversation)

	// Offers
	conversations.Post("/:id/offers", chat.CreateOffer)
	conversations.Get("/:id/offers", chat.ListOffers)
	conversations.Get("/:id/offers/:offer_id", chat.GetOffer)
	conversations.Put("/:id/offers/:offer_id/respond", chat.RespondToOffer)
	conversations.Put("/:id/offers/:offer_id/cancel", chat.CancelOffer)
}
