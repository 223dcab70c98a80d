package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
	"gorm.io/gorm"
)

const (
	defaultOfferHours = 24
	maxOfferHours     = 168
)

var errNotRecipient = errors.New("only the recipient can respond to this offer")

type createOfferInput struct {
	PetID            uint    `json:"pet_id" validate:"required"`
	Price            float64 `json:"price" validate:"required,gt=0"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	Message          string  `json:"message" validate:"max=1000"`
	ExpireAfterHours int     `json:"expire_after_hours" validate:"omitempty,min=1,max=168"`
}

// systemMessage posts an automatic message on behalf of senderID.
func systemMessage(tx *gorm.DB, conv *models.Conversation, senderID uint, offerID uint, text string) error {
	return models.AppendMessage(tx, conv, &models.Message{
		SenderID:    senderID,
		Content:     text,
		MessageType: models.MessageSystem,
		OfferID:     &offerID,
	})
}

// CreateOffer godoc
// @Summary Propose a price inside a conversation
// @Tags offers
// @Router /api/conversations/{id}/offers [post]
func CreateOffer(c *fiber.Ctx) error {
	conv, ok, err := loadConversation(c)
	if !ok {
		return err
	}
	userID := c.Locals("userID").(uint)
	var input createOfferInput
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}

	var pet models.Pet
	if err := db.DB.Where("status <> ?", models.PetDeleted).First(&pet, input.PetID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pet not found"})
	}
	if !conv.HasParticipant(pet.OwnerID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "The pet must belong to a participant of this conversation"})
	}

	offer := models.Offer{
		ConversationID: conv.ID,
		SenderID:       userID,
		RecipientID:    conv.OtherParticipant(userID),
		PetID:          pet.ID,
		Price:          models.RoundMoney(input.Price),
		Message:        input.Message,
	}
	if input.StartDate != "" || input.EndDate != "" {
		start, end, err := utils.ParseDateRange(input.StartDate, input.EndDate)
		if err != nil {
			return utils.ValidationFailed(c, map[string]string{"start_date": "date", "end_date": "gtfield=start_date"})
		}
		offer.StartDate, offer.EndDate = &start, &end
		offer.TotalDays = models.DaysInclusive(start, end)
	}
	hours := input.ExpireAfterHours
	if hours == 0 {
		hours = defaultOfferHours
	}
	offer.ExpiresAt = time.Now().Add(time.Duration(min(hours, maxOfferHours)) * time.Hour)

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&offer).Error; err != nil {
			return err
		}
		if err := systemMessage(tx, conv, userID, offer.ID, fmt.Sprintf("New offer: $%.2f", offer.Price)); err != nil {
			return err
		}
		utils.NotifyQuietly(tx, utils.NotificationInput{
			UserID:     offer.RecipientID,
			Type:       models.NotifyOfferReceived,
			Title:      "New offer",
			Message:    fmt.Sprintf("You received an offer of $%.2f for %s", offer.Price, pet.Name),
			EntityID:   offer.ID,
			EntityType: "offer",
			Data:       map[string]any{"conversation_id": conv.ID, "pet_id": pet.ID},
		})
		return nil
	})
	if err != nil {
		return utils.DomainError(c, err, "Failed to create offer")
	}
	return c.Status(fiber.StatusCreated).JSON(offer)
}

func ListOffers(c *fiber.Ctx) error {
	conv, ok, err := loadConversation(c)
	if !ok {
		return err
	}
	q := db.DB.Where("conversation_id = ?", conv.ID)
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}
	var offers []models.Offer
	if err := q.Order("created_at DESC").Find(&offers).Error; err != nil {
		return utils.InternalError(c, err, "Failed to fetch offers")
	}
	return c.JSON(fiber.Map{"items": offers})
}

// loadOffer reads :offer_id within an already authorized conversation.
func loadOffer(c *fiber.Ctx, conv *models.Conversation) (*models.Offer, bool, error) {
	offerID, err := utils.ParamID(c, "offer_id")
	if err != nil {
		return nil, false, utils.BadID(c, "offer id")
	}
	var offer models.Offer
	if err := db.DB.Where("conversation_id = ?", conv.ID).First(&offer, offerID).Error; err != nil {
		return nil, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Offer not found"})
	}
	return &offer, true, nil
}

func GetOffer(c *fiber.Ctx) error {
	conv, ok, err := loadConversation(c)
	if !ok {
		return err
	}
	offer, ok, err := loadOffer(c, conv)
	if !ok {
		return err
	}
	return c.JSON(offer)
}

// RespondToOffer accepts or rejects a pending offer. Only the participant who
// did not send it may answer, and only before it expires.
func RespondToOffer(c *fiber.Ctx) error {
	conv, ok, err := loadConversation(c)
	if !ok {
		return err
	}
	offer, ok, err := loadOffer(c, conv)
	if !ok {
		return err
	}
	userID := c.Locals("userID").(uint)
	var input struct {
		Accept  *bool  `json:"accept" validate:"required"`
		Message string `json:"message" validate:"max=1000"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	if offer.SenderID == userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": errNotRecipient.Error()})
	}

	next, kind := models.OfferRejected, models.NotifyOfferRejected
	if *input.Accept {
		next, kind = models.OfferAccepted, models.NotifyOfferAccepted
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := offer.Transition(tx, next, input.Message, time.Now()); err != nil {
			return err
		}
		if err := systemMessage(tx, conv, userID, offer.ID, models.OfferResponseText(*input.Accept, input.Message)); err != nil {
			return err
		}
		utils.NotifyQuietly(tx, utils.NotificationInput{
			UserID:     offer.SenderID,
			Type:       kind,
			Title:      "Offer " + string(next),
			Message:    fmt.Sprintf("Your offer of $%.2f was %s", offer.Price, next),
			EntityID:   offer.ID,
			EntityType: "offer",
			Data:       map[string]any{"conversation_id": conv.ID},
		})
		return nil
	})
	if err != nil {
		return utils.DomainError(c, err, "Failed to respond to offer")
	}
	return c.JSON(offer)
}

func CancelOffer(c *fiber.Ctx) error {
	conv, ok, err := loadConversation(c)
	if !ok {
		return err
	}
	offer, ok, err := loadOffer(c, conv)
	if !ok {
		return err
	}
	userID := c.Locals("userID").(uint)
	if offer.SenderID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the sender can cancel this offer"})
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := offer.Transition(tx, models.OfferCancelled, "", time.Now()); err != nil {
			return err
		}
		return systemMessage(tx, conv, userID, offer.ID, "Offer cancelled")
	})
	if err != nil {
		return utils.DomainError(c, err, "Failed to cancel offer")
	}
	return c.JSON(offer)
}
