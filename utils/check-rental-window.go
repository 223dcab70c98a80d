package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/meinhoongagan/petrent-api/models"
)

var (
	ErrInvalidRange   = errors.New("start_date must be before end_date")
	ErrOutsideListing = errors.New("requested dates are outside the pet's availability window")
	ErrRentalLength   = errors.New("requested rental length is not allowed for this pet")
	ErrPetNotBookable = errors.New("pet is not available for rent")
	ErrOwnPetBooking  = errors.New("you cannot book your own pet")
)

// CheckRentalWindow validates a requested range against the listing's own
// rules: ordering, availability window and min/max rental days.
func CheckRentalWindow(pet *models.Pet, renterID uint, start, end time.Time) error {
	if !start.Before(end) {
		return ErrInvalidRange
	}
	if pet.IsOwnedBy(renterID) {
		return ErrOwnPetBooking
	}
	if !pet.Bookable() {
		return ErrPetNotBookable
	}
	if !pet.WithinAvailability(start, end) {
		return ErrOutsideListing
	}
	days := models.DaysInclusive(start, end)
	if pet.MinRentalDays > 0 && days < pet.MinRentalDays {
		return fmt.Errorf("%w: minimum is %d days", ErrRentalLength, pet.MinRentalDays)
	}
	if pet.MaxRentalDays > 0 && days > pet.MaxRentalDays {
		return fmt.Errorf("%w: maximum is %d days", ErrRentalLength, pet.MaxRentalDays)
	}
	return nil
}
