package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	BlockMaintenance = "maintenance"
	BlockPersonal    = "personal"
	BlockUnavailable = "unavailable"
	BlockOther       = "other"
)

var BlockReasons = []string{BlockMaintenance, BlockPersonal, BlockUnavailable, BlockOther}

// BlockedDate is an owner-declared range during which a pet cannot be booked.
type BlockedDate struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PetID     uint      `json:"pet_id" gorm:"index;not null"`
	StartDate time.Time `json:"start_date" gorm:"not null"`
	EndDate   time.Time `json:"end_date" gorm:"not null"`
	Reason    string    `json:"reason" gorm:"not null"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FindBlockedConflicts(tx *gorm.DB, petID uint, start, end time.Time, excludeID uint) ([]BlockedDate, error) {
	var out []BlockedDate
	q := tx.Where("pet_id = ? AND start_date <= ? AND end_date >= ?", petID, end, start)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Order("start_date").Find(&out).Error
	return out, err
}

type DayStatus string

const (
	DayAvailable DayStatus = "available"
	DayBlocked   DayStatus = "blocked"
	DayBooked    DayStatus = "booked"
)

type CalendarDay struct {
	Date      string    `json:"date"`
	Status    DayStatus `json:"status"`
	BookingID *uint     `json:"booking_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// BuildCalendar lays bookings and blocks over [start, end] one day at a time.
// Bookings take precedence over blocks on the same day.
func BuildCalendar(start, end time.Time, bookings []Booking, blocks []BlockedDate) []CalendarDay {
	start, end = DateOnly(start), DateOnly(end)
	var days []CalendarDay
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := CalendarDay{Date: d.Format("2006-01-02"), Status: DayAvailable}
		for _, b := range blocks {
			if RangesOverlap(d, d, DateOnly(b.StartDate), DateOnly(b.EndDate)) {
				day.Status, day.Reason = DayBlocked, b.Reason
				break
			}
		}
		for i := range bookings {
			if RangesOverlap(d, d, DateOnly(bookings[i].StartDate), DateOnly(bookings[i].EndDate)) {
				id := bookings[i].ID
				day.Status, day.BookingID, day.Reason = DayBooked, &id, ""
				break
			}
		}
		days = append(days, day)
	}
	return days
}
