package utils

import (
	"time"

	"github.com/meinhoongagan/petrent-api/models"
	"gorm.io/gorm"
)

// CheckAvailability locks the pet row and checks the requested range against
// active bookings and blocked dates. It must run inside a transaction; the
// lock holds until that transaction ends, so two overlapping requests for the
// same pet cannot both pass.
func CheckAvailability(tx *gorm.DB, petID uint, start, end time.Time, excludeBookingID uint) (*models.Pet, error) {
	pet, err := models.LockPet(tx, petID)
	if err != nil {
		return nil, err
	}
	if err := models.CheckPetAvailability(tx, petID, start, end, models.ActiveBookingStatuses, excludeBookingID); err != nil {
		return pet, err
	}
	return pet, nil
}

// CheckAcceptedOverlap is the stricter check run when accepting a booking:
// no two accepted bookings may share a day.
func CheckAcceptedOverlap(tx *gorm.DB, booking *models.Booking) error {
	if _, err := models.LockPet(tx, booking.PetID); err != nil {
		return err
	}
	return models.CheckPetAvailability(tx, booking.PetID, booking.StartDate, booking.EndDate,
		[]models.BookingStatus{models.BookingAccepted}, booking.ID)
}
