package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/meinhoongagan/petrent-api/config"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:  {BookingAccepted, BookingRejected, BookingCancelled},
	BookingAccepted: {BookingCompleted, BookingCancelled},
}

// ActiveBookingStatuses are the states that hold a pet's dates.
var ActiveBookingStatuses = []BookingStatus{BookingPending, BookingAccepted}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingAccepted, BookingRejected, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return slices.Contains(bookingTransitions[s], next)
}

type Booking struct {
	ID              uint          `json:"id" gorm:"primaryKey"`
	PetID           uint          `json:"pet_id" gorm:"index:idx_booking_pet_dates;not null"`
	Pet             *Pet          `json:"pet,omitempty" gorm:"foreignKey:PetID"`
	RenterID        uint          `json:"renter_id" gorm:"index;not null"`
	Renter          *User         `json:"renter,omitempty" gorm:"foreignKey:RenterID"`
	OwnerID         uint          `json:"owner_id" gorm:"index;not null"`
	Owner           *User         `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	StartDate       time.Time     `json:"start_date" gorm:"index:idx_booking_pet_dates;not null"`
	EndDate         time.Time     `json:"end_date" gorm:"index:idx_booking_pet_dates;not null"`
	TotalDays       int           `json:"total_days"`
	DailyRate       float64       `json:"daily_rate" gorm:"type:decimal(10,2)"`
	TotalAmount     float64       `json:"total_amount" gorm:"type:decimal(12,2)"`
	ServiceFee      float64       `json:"service_fee" gorm:"type:decimal(12,2)"`
	GrandTotal      float64       `json:"grand_total" gorm:"type:decimal(12,2)"`
	Status          BookingStatus `json:"status" gorm:"index;not null"`
	PaymentStatus   string        `json:"payment_status"`
	Message         string        `json:"message,omitempty"`
	SpecialRequests string        `json:"special_requests,omitempty"`
	StatusReason    string        `json:"status_reason,omitempty"`
	CancelledBy     *uint         `json:"cancelled_by,omitempty"`
	AcceptedAt      *time.Time    `json:"accepted_at,omitempty"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.Status == "" {
		b.Status = BookingPending
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = PaymentPending
	}
	return nil
}

func (b *Booking) IsParticipant(userID uint) bool {
	return b.RenterID == userID || b.OwnerID == userID
}

// Counterparty returns the other side of the booking.
func (b *Booking) Counterparty(userID uint) uint {
	if userID == b.OwnerID {
		return b.RenterID
	}
	return b.OwnerID
}

// Price fills the day count and amounts. A positive daily rate wins over the
// client supplied amount.
func (b *Booking) Price(dailyRate, requestedAmount, serviceFeePct float64) error {
	b.TotalDays = DaysInclusive(b.StartDate, b.EndDate)
	b.DailyRate = dailyRate
	switch {
	case dailyRate > 0:
		b.TotalAmount = RoundMoney(dailyRate * float64(b.TotalDays))
	case requestedAmount > 0:
		b.TotalAmount = RoundMoney(requestedAmount)
	default:
		return ErrInvalidAmount
	}
	b.ServiceFee = Percentage(b.TotalAmount, serviceFeePct)
	b.GrandTotal = RoundMoney(b.TotalAmount + b.ServiceFee)
	return nil
}

// FindBookingConflicts returns bookings in the given statuses whose inclusive
// date range overlaps [start, end]. excludeID skips one booking (0 skips none).
func FindBookingConflicts(tx *gorm.DB, petID uint, start, end time.Time, statuses []BookingStatus, excludeID uint) ([]Booking, error) {
	var out []Booking
	q := tx.Where("pet_id = ? AND status IN ? AND start_date <= ? AND end_date >= ?", petID, statuses, end, start)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Order("start_date").Find(&out).Error
	return out, err
}

// CheckPetAvailability fails with ErrBookingConflict when the range collides
// with an active booking or a blocked range.
func CheckPetAvailability(tx *gorm.DB, petID uint, start, end time.Time, statuses []BookingStatus, excludeBookingID uint) error {
	conflicts, err := FindBookingConflicts(tx, petID, start, end, statuses, excludeBookingID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return fmt.Errorf("%w: overlaps booking %d", ErrBookingConflict, conflicts[0].ID)
	}
	blocks, err := FindBlockedConflicts(tx, petID, start, end, 0)
	if err != nil {
		return err
	}
	if len(blocks) > 0 {
		return fmt.Errorf("%w: dates blocked (%s)", ErrBookingConflict, blocks[0].Reason)
	}
	return nil
}

// UpdateStatus applies one step of the transition table. The write is
// conditional on the status read, so a concurrent change makes it fail.
func (b *Booking) UpdateStatus(tx *gorm.DB, newStatus BookingStatus, actorID uint, reason string) error {
	if !b.Status.CanTransitionTo(newStatus) {
		return fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, b.Status, newStatus)
	}

	now := time.Now()
	updates := map[string]any{"status": newStatus, "updated_at": now}
	if reason != "" {
		updates["status_reason"] = reason
	}
	switch newStatus {
	case BookingAccepted:
		updates["accepted_at"] = now
	case BookingCancelled:
		updates["cancelled_by"] = actorID
		if b.PaymentStatus == PaymentPaid {
			updates["payment_status"] = PaymentRefunded
		}
	case BookingCompleted:
		updates["completed_at"] = now
		updates["payment_status"] = PaymentPaid
	}

	res := tx.Model(&Booking{}).Where("id = ? AND status = ?", b.ID, b.Status).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("%w: booking %d changed concurrently", ErrInvalidTransition, b.ID)
	}
	return tx.First(b, b.ID).Error
}

// Complete moves an accepted booking to completed and credits the owner's
// wallet with the amount net of the platform fee, inside tx.
func (b *Booking) Complete(tx *gorm.DB, actorID uint) (*Transaction, error) {
	if err := b.UpdateStatus(tx, BookingCompleted, actorID, ""); err != nil {
		return nil, err
	}
	fee := Percentage(b.TotalAmount, config.App.PlatformFeePercentage)
	net := RoundMoney(b.TotalAmount - fee)
	if net <= 0 {
		return nil, nil
	}
	bookingID := b.ID
	return PostWalletEntry(tx, WalletEntry{
		UserID:      b.OwnerID,
		Type:        TxEarning,
		Amount:      net,
		PlatformFee: fee,
		BookingID:   &bookingID,
		Description: fmt.Sprintf("Earnings for booking #%d", b.ID),
	})
}
