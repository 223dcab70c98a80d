package models

import (
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"
)

type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
	OfferCancelled OfferStatus = "cancelled"
	OfferExpired   OfferStatus = "expired"
)

var offerTransitions = map[OfferStatus][]OfferStatus{
	OfferPending: {OfferAccepted, OfferRejected, OfferCancelled, OfferExpired},
}

func (s OfferStatus) CanTransitionTo(next OfferStatus) bool {
	return slices.Contains(offerTransitions[s], next)
}

// Offer is a price proposal inside a conversation.
type Offer struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	ConversationID uint        `json:"conversation_id" gorm:"index;not null"`
	SenderID       uint        `json:"sender_id" gorm:"not null"`
	RecipientID    uint        `json:"recipient_id" gorm:"not null"`
	PetID          uint        `json:"pet_id" gorm:"not null"`
	Price          float64     `json:"price" gorm:"type:decimal(10,2);not null"`
	StartDate      *time.Time  `json:"start_date,omitempty"`
	EndDate        *time.Time  `json:"end_date,omitempty"`
	TotalDays      int         `json:"total_days,omitempty"`
	Message        string      `json:"message,omitempty"`
	Status         OfferStatus `json:"status" gorm:"index;not null"`
	ResponseNote   string      `json:"response_message,omitempty"`
	ExpiresAt      time.Time   `json:"expires_at" gorm:"index"`
	RespondedAt    *time.Time  `json:"responded_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.Status == "" {
		o.Status = OfferPending
	}
	return nil
}

func (o *Offer) IsExpired(now time.Time) bool {
	return o.Status == OfferPending && now.After(o.ExpiresAt)
}

// Transition moves a pending offer to next. Pending offers past their expiry
// can only move to expired.
func (o *Offer) Transition(tx *gorm.DB, next OfferStatus, note string, now time.Time) error {
	if o.Status != OfferPending {
		return ErrOfferClosed
	}
	if next != OfferExpired && o.IsExpired(now) {
		return fmt.Errorf("%w: offer expired at %s", ErrOfferClosed, o.ExpiresAt.Format(time.RFC3339))
	}
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, o.Status, next)
	}

	updates := map[string]any{"status": next, "updated_at": now}
	if next == OfferAccepted || next == OfferRejected {
		updates["responded_at"] = now
		updates["response_note"] = note
	}
	res := tx.Model(&Offer{}).Where("id = ? AND status = ?", o.ID, OfferPending).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrOfferClosed
	}
	return tx.First(o, o.ID).Error
}

// OfferResponseText is the system message posted when an offer is answered.
func OfferResponseText(accepted bool, note string) string {
	text := "Offer rejected"
	if accepted {
		text = "Offer accepted"
	}
	if note != "" {
		text += ": " + note
	}
	return text
}
