package utils

import (
	"encoding/json"
	"fmt"

	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/metrics"
	"github.com/meinhoongagan/petrent-api/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationInput struct {
	UserID     uint
	Type       models.NotificationType
	Title      string
	Message    string
	EntityID   uint
	EntityType string
	Data       map[string]any
}

// NotificationSettingsFor returns the stored settings or the defaults.
func NotificationSettingsFor(tx *gorm.DB, userID uint) (models.NotificationSettings, error) {
	var s models.NotificationSettings
	err := tx.Where("user_id = ?", userID).Limit(1).Find(&s).Error
	if err != nil {
		return s, err
	}
	if s.ID == 0 {
		return models.DefaultNotificationSettings(userID), nil
	}
	return s, nil
}

// Notify writes an in-app notification unless the recipient switched the
// category off. It returns nil, nil when skipped.
func Notify(tx *gorm.DB, in NotificationInput) (*models.Notification, error) {
	settings, err := NotificationSettingsFor(tx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !settings.Allows(in.Type) {
		return nil, nil
	}

	n := &models.Notification{
		UserID:            in.UserID,
		Type:              in.Type,
		Title:             in.Title,
		Message:           in.Message,
		RelatedEntityType: in.EntityType,
	}
	if in.EntityID != 0 {
		id := in.EntityID
		n.RelatedEntityID = &id
	}
	if len(in.Data) > 0 {
		raw, err := json.Marshal(in.Data)
		if err != nil {
			return nil, err
		}
		n.Data = datatypes.JSON(raw)
	}
	if err := tx.Create(n).Error; err != nil {
		return nil, err
	}
	metrics.RecordNotification(string(in.Type))
	return n, nil
}

// NotifyQuietly is Notify for side effects that must not fail the caller's
// request; errors are logged.
func NotifyQuietly(tx *gorm.DB, in NotificationInput) {
	if _, err := Notify(tx, in); err != nil {
		logger.Log.WithError(err).WithFields(map[string]any{
			"user_id": in.UserID,
			"type":    in.Type,
		}).Warn("failed to write notification")
	}
}

var bookingNotifications = map[models.BookingStatus]models.NotificationType{
	models.BookingAccepted:  models.NotifyBookingAccepted,
	models.BookingRejected:  models.NotifyBookingRejected,
	models.BookingCancelled: models.NotifyBookingCancelled,
	models.BookingCompleted: models.NotifyBookingCompleted,
}

// NotifyBookingChange tells the other party about a status change. A
// completion also tells the owner about the payment.
func NotifyBookingChange(tx *gorm.DB, b *models.Booking, actorID uint) {
	kind, ok := bookingNotifications[b.Status]
	if !ok {
		return
	}
	var pet models.Pet
	tx.Select("id", "name").First(&pet, b.PetID)

	recipient := b.Counterparty(actorID)
	if b.Status == models.BookingCompleted {
		recipient = b.RenterID
	}
	NotifyQuietly(tx, NotificationInput{
		UserID:     recipient,
		Type:       kind,
		Title:      fmt.Sprintf("Booking %s", b.Status),
		Message:    fmt.Sprintf("Your booking #%d for %s is now %s", b.ID, pet.Name, b.Status),
		EntityID:   b.ID,
		EntityType: "booking",
		Data:       map[string]any{"pet_id": b.PetID, "status": b.Status},
	})
	if b.Status == models.BookingCompleted {
		NotifyQuietly(tx, NotificationInput{
			UserID:     b.OwnerID,
			Type:       models.NotifyPaymentReceived,
			Title:      "Payment received",
			Message:    fmt.Sprintf("Earnings for booking #%d were added to your wallet", b.ID),
			EntityID:   b.ID,
			EntityType: "booking",
		})
	}
}
