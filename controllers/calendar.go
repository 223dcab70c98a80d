package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
	"gorm.io/gorm"
)

// longest range a calendar request may cover
const maxCalendarDays = 366

type blockedDateInput struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Reason    string `json:"reason" validate:"required,oneof=maintenance personal unavailable other"`
	Notes     string `json:"notes" validate:"max=500"`
}

// parseBlockRange accepts single-day blocks, so end may equal start.
func parseBlockRange(in blockedDateInput) (time.Time, time.Time, map[string]string) {
	start, err := utils.ParseDate(in.StartDate)
	if err != nil {
		return start, start, map[string]string{"start_date": "date"}
	}
	end, err := utils.ParseDate(in.EndDate)
	if err != nil {
		return start, end, map[string]string{"end_date": "date"}
	}
	if end.Before(start) {
		return start, end, map[string]string{"end_date": "gtefield=start_date"}
	}
	return start, end, nil
}

// checkBlockConflicts refuses to block days held by a booking or another block.
func checkBlockConflicts(tx *gorm.DB, petID uint, start, end time.Time, excludeBlockID uint) error {
	if _, err := models.LockPet(tx, petID); err != nil {
		return err
	}
	bookings, err := models.FindBookingConflicts(tx, petID, start, end, models.ActiveBookingStatuses, 0)
	if err != nil {
		return err
	}
	if len(bookings) > 0 {
		return fmt.Errorf("%w: overlaps booking %d", models.ErrBookingConflict, bookings[0].ID)
	}
	blocks, err := models.FindBlockedConflicts(tx, petID, start, end, excludeBlockID)
	if err != nil {
		return err
	}
	if len(blocks) > 0 {
		return fmt.Errorf("%w: overlaps blocked range %d", models.ErrBookingConflict, blocks[0].ID)
	}
	return nil
}

// CreateBlockedDate blocks a date range on one of the caller's pets
func CreateBlockedDate(c *fiber.Ctx) error {
	pet, ok, err := findOwnedPet(c, "pet_id")
	if !ok {
		return err
	}
	var input blockedDateInput
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	start, end, fields := parseBlockRange(input)
	if fields != nil {
		return utils.ValidationFailed(c, fields)
	}

	block := models.BlockedDate{PetID: pet.ID, StartDate: start, EndDate: end, Reason: input.Reason, Notes: input.Notes}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := checkBlockConflicts(tx, pet.ID, start, end, 0); err != nil {
			return err
		}
		return tx.Create(&block).Error
	})
	if err != nil {
		return utils.DomainError(c, err, "Failed to block dates")
	}
	return c.Status(fiber.StatusCreated).JSON(block)
}

// loadOwnedBlock reads :id and checks the caller owns its pet.
func loadOwnedBlock(c *fiber.Ctx) (*models.BlockedDate, bool, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, false, utils.BadID(c, "blocked date id")
	}
	var block models.BlockedDate
	if err := db.DB.First(&block, id).Error; err != nil {
		return nil, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Blocked date not found"})
	}
	var pet models.Pet
	if err := db.DB.Select("id", "owner_id").First(&pet, block.PetID).Error; err != nil || !pet.IsOwnedBy(c.Locals("userID").(uint)) {
		return nil, false, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You do not own this pet"})
	}
	return &block, true, nil
}

func UpdateBlockedDate(c *fiber.Ctx) error {
	block, ok, err := loadOwnedBlock(c)
	if !ok {
		return err
	}
	input := blockedDateInput{
		StartDate: block.StartDate.Format(utils.DateLayout),
		EndDate:   block.EndDate.Format(utils.DateLayout),
		Reason:    block.Reason,
		Notes:     block.Notes,
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	start, end, fields := parseBlockRange(input)
	if fields != nil {
		return utils.ValidationFailed(c, fields)
	}

	block.StartDate, block.EndDate, block.Reason, block.Notes = start, end, input.Reason, input.Notes
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := checkBlockConflicts(tx, block.PetID, start, end, block.ID); err != nil {
			return err
		}
		return tx.Save(block).Error
	})
	if err != nil {
		return utils.DomainError(c, err, "Failed to update blocked dates")
	}
	return c.JSON(block)
}

func DeleteBlockedDate(c *fiber.Ctx) error {
	block, ok, err := loadOwnedBlock(c)
	if !ok {
		return err
	}
	if err := db.DB.Delete(block).Error; err != nil {
		return utils.InternalError(c, err, "Failed to delete blocked dates")
	}
	return c.JSON(fiber.Map{"message": "Blocked dates removed"})
}

// calendarRange reads start_date/end_date, defaulting to the current month.
func calendarRange(c *fiber.Ctx) (time.Time, time.Time, map[string]string) {
	if c.Query("start_date") == "" && c.Query("end_date") == "" {
		start, end := utils.MonthBounds(time.Now().UTC())
		return start, end, nil
	}
	start, end, fields := parseBlockRange(blockedDateInput{StartDate: c.Query("start_date"), EndDate: c.Query("end_date")})
	if fields != nil {
		return start, end, fields
	}
	if models.DaysInclusive(start, end) > maxCalendarDays {
		return start, end, map[string]string{"end_date": fmt.Sprintf("max_range=%d", maxCalendarDays)}
	}
	return start, end, nil
}

func loadPet(c *fiber.Ctx) (*models.Pet, bool, error) {
	id, err := utils.ParamID(c, "pet_id")
	if err != nil {
		return nil, false, utils.BadID(c, "pet id")
	}
	var pet models.Pet
	if err := db.DB.Where("status <> ?", models.PetDeleted).First(&pet, id).Error; err != nil {
		return nil, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pet not found"})
	}
	return &pet, true, nil
}

// GetPetCalendar godoc
// @Summary Day-by-day availability of a pet
// @Tags calendar
// @Param pet_id path int true "Pet ID"
// @Param start_date query string false "YYYY-MM-DD, default first day of this month"
// @Param end_date query string false "YYYY-MM-DD, default last day of this month"
// @Router /api/calendar/pets/{pet_id} [get]
func GetPetCalendar(c *fiber.Ctx) error {
	pet, ok, err := loadPet(c)
	if !ok {
		return err
	}
	start, end, fields := calendarRange(c)
	if fields != nil {
		return utils.ValidationFailed(c, fields)
	}

	bookings, err := models.FindBookingConflicts(db.DB, pet.ID, start, end, models.ActiveBookingStatuses, 0)
	if err != nil {
		return utils.InternalError(c, err, "Failed to load bookings")
	}
	blocks, err := models.FindBlockedConflicts(db.DB, pet.ID, start, end, 0)
	if err != nil {
		return utils.InternalError(c, err, "Failed to load blocked dates")
	}
	return c.JSON(fiber.Map{
		"pet_id":        pet.ID,
		"start_date":    start.Format(utils.DateLayout),
		"end_date":      end.Format(utils.DateLayout),
		"days":          models.BuildCalendar(start, end, bookings, blocks),
		"blocked_dates": blocks,
	})
}

// CheckPetAvailability answers whether a range is free without booking it.
func CheckPetAvailability(c *fiber.Ctx) error {
	pet, ok, err := loadPet(c)
	if !ok {
		return err
	}
	start, end, err := utils.ParseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return utils.ValidationFailed(c, map[string]string{"start_date": "date", "end_date": "gtfield=start_date"})
	}

	bookings, err := models.FindBookingConflicts(db.DB, pet.ID, start, end, models.ActiveBookingStatuses, 0)
	if err != nil {
		return utils.InternalError(c, err, "Failed to load bookings")
	}
	blocks, err := models.FindBlockedConflicts(db.DB, pet.ID, start, end, 0)
	if err != nil {
		return utils.InternalError(c, err, "Failed to load blocked dates")
	}

	conflicting := []string{}
	for _, day := range models.BuildCalendar(start, end, bookings, blocks) {
		if day.Status != models.DayAvailable {
			conflicting = append(conflicting, day.Date)
		}
	}
	bookingIDs := make([]uint, 0, len(bookings))
	for _, b := range bookings {
		bookingIDs = append(bookingIDs, b.ID)
	}
	var blockedReason *string
	if len(blocks) > 0 {
		blockedReason = &blocks[0].Reason
	}
	return c.JSON(fiber.Map{
		"pet_id":            pet.ID,
		"is_available":      len(conflicting) == 0 && pet.Bookable(),
		"conflicting_dates": conflicting,
		"blocked_reason":    blockedReason,
		"booking_ids":       bookingIDs,
	})
}

// GetMySchedule lists upcoming accepted and pending bookings on both sides.
func GetMySchedule(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	today := models.DateOnly(time.Now().UTC())

	upcoming := func(column string) ([]models.Booking, error) {
		var out []models.Booking
		err := db.DB.Preload("Pet").
			Where(column+" = ? AND status IN ? AND end_date >= ?", userID, models.ActiveBookingStatuses, today).
			Order("start_date ASC").Find(&out).Error
		return out, err
	}
	asOwner, err := upcoming("owner_id")
	if err != nil {
		return utils.InternalError(c, err, "Failed to load schedule")
	}
	asRenter, err := upcoming("renter_id")
	if err != nil {
		return utils.InternalError(c, err, "Failed to load schedule")
	}
	return c.JSON(fiber.Map{"as_owner": asOwner, "as_renter": asRenter})
}
