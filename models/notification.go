package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotifyBookingRequest   NotificationType = "booking_request"
	NotifyBookingAccepted  NotificationType = "booking_accepted"
	NotifyBookingRejected  NotificationType = "booking_rejected"
	NotifyBookingCancelled NotificationType = "booking_cancelled"
	NotifyBookingCompleted NotificationType = "booking_completed"
	NotifyMessageReceived  NotificationType = "message_received"
	NotifyReviewReceived   NotificationType = "review_received"
	NotifyPaymentReceived  NotificationType = "payment_received"
	NotifyPayoutUpdated    NotificationType = "payout_updated"
	NotifyOfferReceived    NotificationType = "offer_received"
	NotifyOfferAccepted    NotificationType = "offer_accepted"
	NotifyOfferRejected    NotificationType = "offer_rejected"
	NotifyReportUpdated    NotificationType = "report_updated"
	NotifyHealthReminder   NotificationType = "health_reminder"
	NotifySystem           NotificationType = "system"
)

type Notification struct {
	ID                uint             `json:"id" gorm:"primaryKey"`
	UserID            uint             `json:"user_id" gorm:"index:idx_notification_user_read;not null"`
	Type              NotificationType `json:"type" gorm:"not null"`
	Title             string           `json:"title"`
	Message           string           `json:"message"`
	RelatedEntityID   *uint            `json:"related_entity_id,omitempty"`
	RelatedEntityType string           `json:"related_entity_type,omitempty"`
	Data              datatypes.JSON   `json:"data,omitempty"`
	IsRead            bool             `json:"is_read" gorm:"index:idx_notification_user_read"`
	ReadAt            *time.Time       `json:"read_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at" gorm:"index"`
}

// NotificationSettings are per-user switches. Defaults are applied in code
// rather than as column defaults so that false values survive inserts.
type NotificationSettings struct {
	ID                  uint      `json:"-" gorm:"primaryKey"`
	UserID              uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	EmailEnabled        bool      `json:"email_enabled"`
	InAppEnabled        bool      `json:"in_app_enabled"`
	BookingUpdates      bool      `json:"booking_updates"`
	Messages            bool      `json:"messages"`
	Reviews             bool      `json:"reviews"`
	Payments            bool      `json:"payments"`
	Offers              bool      `json:"offers"`
	SystemAnnouncements bool      `json:"system_announcements"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func DefaultNotificationSettings(userID uint) NotificationSettings {
	return NotificationSettings{
		UserID:              userID,
		EmailEnabled:        true,
		InAppEnabled:        true,
		BookingUpdates:      true,
		Messages:            true,
		Reviews:             true,
		Payments:            true,
		Offers:              true,
		SystemAnnouncements: true,
	}
}

// Allows reports whether an in-app notification of type t should be written.
// System notices and health reminders ignore the category switches.
func (s NotificationSettings) Allows(t NotificationType) bool {
	switch t {
	case NotifySystem, NotifyReportUpdated, NotifyHealthReminder:
		return true
	}
	if !s.InAppEnabled {
		return false
	}
	switch t {
	case NotifyBookingRequest, NotifyBookingAccepted, NotifyBookingRejected, NotifyBookingCancelled, NotifyBookingCompleted:
		return s.BookingUpdates
	case NotifyMessageReceived:
		return s.Messages
	case NotifyReviewReceived:
		return s.Reviews
	case NotifyPaymentReceived, NotifyPayoutUpdated:
		return s.Payments
	case NotifyOfferReceived, NotifyOfferAccepted, NotifyOfferRejected:
		return s.Offers
	}
	return s.SystemAnnouncements
}
