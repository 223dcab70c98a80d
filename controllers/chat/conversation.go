package chat

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/metrics"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
	"gorm.io/gorm"
)

var (
	errRecipientClosed = errors.New("recipient does not accept messages")
	errNotSender       = errors.New("only the sender can do this")
)

// loadConversation reads the :id conversation and checks the caller takes
// part in it. ok is false when a response has already been written.
func loadConversation(c *fiber.Ctx) (*models.Conversation, bool, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, false, utils.BadID(c, "conversation id")
	}
	var conv models.Conversation
	if err := db.DB.First(&conv, id).Error; err != nil {
		return nil, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
	}
	if !conv.HasParticipant(c.Locals("userID").(uint)) {
		return nil, false, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not part of this conversation"})
	}
	return &conv, true, nil
}

func notifyMessage(tx *gorm.DB, conv *models.Conversation, msg *models.Message) {
	var sender models.User
	tx.Select("id", "full_name").First(&sender, msg.SenderID)
	utils.NotifyQuietly(tx, utils.NotificationInput{
		UserID:     conv.OtherParticipant(msg.SenderID),
		Type:       models.NotifyMessageReceived,
		Title:      "New message from " + sender.FullName,
		Message:    msg.Preview(),
		EntityID:   conv.ID,
		EntityType: "conversation",
		Data:       map[string]any{"message_id": msg.ID, "sender_id": msg.SenderID},
	})
}

// StartConversation godoc
// @Summary Open (or reuse) the conversation with another user
// @Tags conversations
// @Router /api/conversations [post]
func StartConversation(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	var input struct {
		RecipientID      uint   `json:"recipient_id" validate:"required"`
		Message          string `json:"message" validate:"max=5000"`
		RelatedPetID     *uint  `json:"related_pet_id"`
		RelatedBookingID *uint  `json:"related_booking_id"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	if input.RecipientID == userID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot message yourself"})
	}

	var recipient models.User
	if err := db.DB.Where("is_active = ?", true).First(&recipient, input.RecipientID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Recipient not found"})
	}
	if !recipient.PrivacySettings.Data().AllowMessages {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": errRecipientClosed.Error()})
	}

	var conv *models.Conversation
	var created bool
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		conv, created, err = models.FindOrCreateConversation(tx, userID, recipient.ID)
		if err != nil {
			return err
		}
		related := map[string]any{}
		if input.RelatedPetID != nil {
			related["related_pet_id"] = *input.RelatedPetID
			conv.RelatedPetID = input.RelatedPetID
		}
		if input.RelatedBookingID != nil {
			related["related_booking_id"] = *input.RelatedBookingID
			conv.RelatedBookingID = input.RelatedBookingID
		}
		if len(related) > 0 {
			if err := tx.Model(conv).Updates(related).Error; err != nil {
				return err
			}
		}
		if strings.TrimSpace(input.Message) == "" {
			return nil
		}
		msg := &models.Message{SenderID: userID, Content: input.Message}
		if err := models.AppendMessage(tx, conv, msg); err != nil {
			return err
		}
		metrics.RecordMessage(string(msg.MessageType))
		notifyMessage(tx, conv, msg)
		return nil
	})
	if err != nil {
		return utils.DomainError(c, err, "Failed to start conversation")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"conversation": conv, "created": created})
}

type conversationSummary struct {
	models.Conversation
	OtherParticipant models.PublicProfile `json:"other_participant"`
	UnreadCount      int64                `json:"unread_count"`
	Archived         bool                 `json:"archived"`
}

// ListConversations returns the caller's conversations, newest activity first.
func ListConversations(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	archived := utils.QueryBool(c, "archived")
	p := utils.GetPagination(c)

	q := db.DB.Model(&models.Conversation{}).Where(
		"(participant_one_id = ? AND archived_by_one = ?) OR (participant_two_id = ? AND archived_by_two = ?)",
		userID, archived, userID, archived)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.InternalError(c, err, "Failed to count conversations")
	}
	var convs []models.Conversation
	if err := q.Order("COALESCE(last_message_at, created_at) DESC").Order("id DESC").
		Offset(p.Offset).Limit(p.Limit).Find(&convs).Error; err != nil {
		return utils.InternalError(c, err, "Failed to fetch conversations")
	}

	ids := make([]uint, 0, len(convs))
	others := make([]uint, 0, len(convs))
	for i := range convs {
		ids = append(ids, convs[i].ID)
		others = append(others, convs[i].OtherParticipant(userID))
	}

	var unreadRows []struct {
		ConversationID uint
		Total          int64
	}
	var users []models.User
	if len(ids) > 0 {
		if err := db.DB.Model(&models.Message{}).Select("conversation_id, COUNT(*) AS total").
			Where("conversation_id IN ? AND sender_id <> ? AND read_at IS NULL", ids, userID).
			Group("conversation_id").Scan(&unreadRows).Error; err != nil {
			return utils.InternalError(c, err, "Failed to count unread messages")
		}
		if err := db.DB.Where("id IN ?", others).Find(&users).Error; err != nil {
			return utils.InternalError(c, err, "Failed to load participants")
		}
	}
	unread := make(map[uint]int64, len(unreadRows))
	for _, row := range unreadRows {
		unread[row.ConversationID] = row.Total
	}
	profiles := make(map[uint]models.PublicProfile, len(users))
	for i := range users {
		profiles[users[i].ID] = users[i].PublicProfile()
	}

	items := make([]conversationSummary, len(convs))
	for i := range convs {
		items[i] = conversationSummary{
			Conversation:     convs[i],
			OtherParticipant: profiles[convs[i].OtherParticipant(userID)],
			UnreadCount:      unread[convs[i].ID],
			Archived:         convs[i].ArchivedFor(userID),
		}
	}
	return c.JSON(p.Envelope(items, total))
}

// GetConversation returns a conversation with one page of messages. Pages
// count back from the newest message; each page is oldest first.
func GetConversation(c *fiber.Ctx) error {
	conv, ok, err := loadConversation(c)
	if !ok {
		return err
	}
	userID := c.Locals("userID").(uint)
	p := utils.GetPagination(c)

	var total int64
	db.DB.Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&total)
	var messages []models.Message
	if err := db.DB.Where("conversation_id = ?", conv.ID).Order("created_at DESC").Order("id DESC").
		Offset(p.Offset).Limit(p.Limit).Find(&messages).Error; err != nil {
		return utils.InternalError(c, err, "Failed to fetch messages")
	}
	slices.Reverse(messages)

	var other models.User
	db.DB.First(&other, conv.OtherParticipant(userID))

	return c.JSON(fiber.Map{
		"conversation":      conv,
		"other_participant": other.PublicProfile(),
		"archived":          conv.ArchivedFor(userID),
		"messages":          p.Envelope(messages, total),
	})
}

// emptyMessage answers a send with neither text nor images.
func emptyMessage(c *fiber.Ctx) error {
	return utils.ValidationFailed(c, map[string]string{
		"content": "required_without=images",
		"images":  "required_without=content",
	})
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// SendMessage godoc
// @Summary Send a message
// @Description Accepts JSON {content, image_urls} or a multipart form with content and images files.
// @Description The message type is text, image or mixed depending on what was sent.
// @Tags conversations
// @Router /api/conversations/{id}/messages [post]
func SendMessage(c *fiber.Ctx) error {
	conv, ok, err := loadConversation(c)
	if !ok {
		return err
	}
	userID := c.Locals("userID").(uint)

	var content string
	var images []string
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid multipart form"})
		}
		if v := form.Value["content"]; len(v) > 0 {
			content = v[0]
		}
		files := form.File["images"]
		if strings.TrimSpace(content) == "" && len(files) == 0 {
			return emptyMessage(c)
		}
		if len(files) > 0 {
			images, err = utils.UploadImages(c.UserContext(), files, "conversation_images", fmt.Sprintf("conv_%d", conv.ID))
			if err != nil {
				return utils.DomainError(c, err, "Failed to upload images")
			}
		}
	} else {
		var input struct {
			Content   string   `json:"content" validate:"max=5000"`
			ImageURLs []string `json:"image_urls" validate:"max=10,dive,omitempty,url"`
		}
		if ok, err := utils.ParseBody(c, &input); !ok {
			return err
		}
		content, images = input.Content, input.ImageURLs
	}

	msgType, err := models.DetectMessageType(content, images)
	if err != nil {
		return emptyMessage(c)
	}
	msg := &models.Message{
		SenderID:    userID,
		Content:     strings.TrimSpace(content),
		ImageURLs:   images,
		MessageType: msgType,
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := models.AppendMessage(tx, conv, msg); err != nil {
			return err
		}
		notifyMessage(tx, conv, msg)
		return nil
	})
	if err != nil {
		return utils.DomainError(c, err, "Failed to send message")
	}
	metrics.RecordMessage(string(msg.MessageType))
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// MarkConversationRead stamps every unread message from the other side.
func MarkConversationRead(c *fiber.Ctx) error {
	conv, ok, err := loadConversation(c)
	if !ok {
		return err
	}
	n, err := models.MarkConversationRead(db.DB, conv.ID, c.Locals("userID").(uint), time.Now())
	if err != nil {
		return utils.InternalError(c, err, "Failed to mark messages read")
	}
	return c.JSON(fiber.Map{"conversation_id": conv.ID, "marked_read": n})
}

func DeleteMessage(c *fiber.Ctx) error {
	conv, ok, err := loadConversation(c)
	if !ok {
		return err
	}
	messageID, err := utils.ParamID(c, "message_id")
	if err != nil {
		return utils.BadID(c, "message id")
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var msg models.Message
		if err := tx.Where("conversation_id = ?", conv.ID).First(&msg, messageID).Error; err != nil {
			return err
		}
		if msg.SenderID != c.Locals("userID").(uint) {
			return errNotSender
		}
		if err := tx.Delete(&msg).Error; err != nil {
			return err
		}
		return models.RefreshLastMessage(tx, conv)
	})
	if errors.Is(err, errNotSender) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only delete your own messages"})
	}
	if err != nil {
		return utils.DomainError(c, err, "Failed to delete message")
	}
	return c.JSON(fiber.Map{"message": "Message deleted"})
}

func ArchiveConversation(c *fiber.Ctx) error {
	conv, ok, err := loadConversation(c)
	if !ok {
		return err
	}
	var input struct {
		Archived *bool `json:"archived" validate:"required"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	if err := conv.SetArchived(db.DB, c.Locals("userID").(uint), *input.Archived); err != nil {
		return utils.InternalError(c, err, "Failed to archive conversation")
	}
	return c.JSON(fiber.Map{"conversation_id": conv.ID, "archived": *input.Archived})
}
