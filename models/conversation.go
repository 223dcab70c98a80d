package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageMixed  MessageType = "mixed"
	MessageSystem MessageType = "system"
)

// DetectMessageType derives the type from what the message carries:
// content and images is mixed, images alone is image, content alone is text.
// Blank content and empty image URLs do not count.
func DetectMessageType(content string, images []string) (MessageType, error) {
	hasContent := strings.TrimSpace(content) != ""
	hasImages := len(CleanImageURLs(images)) > 0
	switch {
	case hasContent && hasImages:
		return MessageMixed, nil
	case hasImages:
		return MessageImage, nil
	case hasContent:
		return MessageText, nil
	}
	return "", ErrEmptyMessage
}

// CleanImageURLs drops blank entries and keeps order.
func CleanImageURLs(images []string) []string {
	out := make([]string, 0, len(images))
	for _, u := range images {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// Conversation is between exactly two users. ParticipantOneID is always the
// smaller id so that a pair maps to a single row.
type Conversation struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	ParticipantOneID   uint       `json:"participant_one_id" gorm:"uniqueIndex:idx_conversation_pair;not null"`
	ParticipantTwoID   uint       `json:"participant_two_id" gorm:"uniqueIndex:idx_conversation_pair;not null"`
	RelatedPetID       *uint      `json:"related_pet_id,omitempty"`
	RelatedBookingID   *uint      `json:"related_booking_id,omitempty"`
	ArchivedByOne      bool       `json:"-"`
	ArchivedByTwo      bool       `json:"-"`
	LastMessagePreview string     `json:"last_message_preview"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty" gorm:"index"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// OrderedPair returns the two ids smallest first.
func OrderedPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

func (c *Conversation) HasParticipant(userID uint) bool {
	return c.ParticipantOneID == userID || c.ParticipantTwoID == userID
}

func (c *Conversation) OtherParticipant(userID uint) uint {
	if c.ParticipantOneID == userID {
		return c.ParticipantTwoID
	}
	return c.ParticipantOneID
}

func (c *Conversation) ArchivedFor(userID uint) bool {
	if c.ParticipantOneID == userID {
		return c.ArchivedByOne
	}
	return c.ArchivedByTwo
}

// archiveColumn names the per-participant archive flag column.
func (c *Conversation) archiveColumn(userID uint) string {
	if c.ParticipantOneID == userID {
		return "archived_by_one"
	}
	return "archived_by_two"
}

func (c *Conversation) SetArchived(tx *gorm.DB, userID uint, archived bool) error {
	col := c.archiveColumn(userID)
	if err := tx.Model(c).UpdateColumn(col, archived).Error; err != nil {
		return err
	}
	if col == "archived_by_one" {
		c.ArchivedByOne = archived
	} else {
		c.ArchivedByTwo = archived
	}
	return nil
}

// FindOrCreateConversation returns the pair's conversation, creating it on first contact.
func FindOrCreateConversation(tx *gorm.DB, a, b uint) (*Conversation, bool, error) {
	one, two := OrderedPair(a, b)
	var conv Conversation
	err := tx.Where("participant_one_id = ? AND participant_two_id = ?", one, two).Limit(1).Find(&conv).Error
	if err != nil {
		return nil, false, err
	}
	if conv.ID != 0 {
		return &conv, false, nil
	}
	conv = Conversation{ParticipantOneID: one, ParticipantTwoID: two}
	if err := tx.Create(&conv).Error; err != nil {
		return nil, false, err
	}
	return &conv, true, nil
}

type Message struct {
	ID             uint                        `json:"id" gorm:"primaryKey"`
	ConversationID uint                        `json:"conversation_id" gorm:"index;not null"`
	SenderID       uint                        `json:"sender_id" gorm:"index;not null"`
	Content        string                      `json:"content"`
	ImageURLs      datatypes.JSONSlice[string] `json:"image_urls"`
	MessageType    MessageType                 `json:"message_type" gorm:"not null"`
	OfferID        *uint                       `json:"offer_id,omitempty"`
	ReadAt         *time.Time                  `json:"read_at"`
	CreatedAt      time.Time                   `json:"created_at" gorm:"index"`
	DeletedAt      gorm.DeletedAt              `json:"-" gorm:"index"`
}

// Preview is the short text shown in conversation lists.
func (m *Message) Preview() string {
	text := strings.TrimSpace(m.Content)
	if text == "" {
		switch len(m.ImageURLs) {
		case 0:
			return ""
		case 1:
			return "[image]"
		default:
			return "[images]"
		}
	}
	if utf8.RuneCountInString(text) > 100 {
		return string([]rune(text)[:100]) + "..."
	}
	return text
}

// AppendMessage stores msg and refreshes the conversation summary. A new
// message un-archives the conversation for both participants.
func AppendMessage(tx *gorm.DB, conv *Conversation, msg *Message) error {
	if msg.MessageType == "" {
		t, err := DetectMessageType(msg.Content, msg.ImageURLs)
		if err != nil {
			return err
		}
		msg.MessageType = t
	}
	msg.ConversationID = conv.ID
	msg.ImageURLs = CleanImageURLs(msg.ImageURLs)
	if err := tx.Create(msg).Error; err != nil {
		return err
	}
	conv.LastMessagePreview = msg.Preview()
	conv.LastMessageAt = &msg.CreatedAt
	conv.ArchivedByOne, conv.ArchivedByTwo = false, false
	return tx.Model(conv).Select("last_message_preview", "last_message_at", "archived_by_one", "archived_by_two").Updates(conv).Error
}

// MarkConversationRead stamps read_at on every unread message the other
// participant sent. Repeating the call changes nothing.
func MarkConversationRead(tx *gorm.DB, conversationID, readerID uint, now time.Time) (int64, error) {
	res := tx.Model(&Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", now)
	return res.RowsAffected, res.Error
}

// RefreshLastMessage recomputes the summary after a deletion.
func RefreshLastMessage(tx *gorm.DB, conv *Conversation) error {
	var last Message
	err := tx.Where("conversation_id = ?", conv.ID).Order("created_at DESC, id DESC").Limit(1).Find(&last).Error
	if err != nil {
		return err
	}
	if last.ID == 0 {
		conv.LastMessagePreview, conv.LastMessageAt = "", nil
	} else {
		conv.LastMessagePreview, conv.LastMessageAt = last.Preview(), &last.CreatedAt
	}
	return tx.Model(conv).Select("last_message_preview", "last_message_at").Updates(conv).Error
}
