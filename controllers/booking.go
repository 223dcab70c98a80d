package controllers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/metrics"
	"github.com/meinhoongagan/petrent-api/middleware"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errNotAllowed = errors.New("not allowed")

type createBookingInput struct {
	PetID           uint    `json:"pet_id" validate:"required"`
	StartDate       string  `json:"start_date" validate:"required"`
	EndDate         string  `json:"end_date" validate:"required"`
	TotalAmount     float64 `json:"total_amount" validate:"gte=0"`
	Message         string  `json:"message" validate:"max=1000"`
	SpecialRequests string  `json:"special_requests" validate:"max=1000"`
}

// CreateBooking godoc
// @Summary Request a rental
// @Description The conflict check and the insert run in one transaction that holds a lock on the pet row.
// @Tags bookings
// @Accept json
// @Produce json
// @Param booking body createBookingInput true "Booking"
// @Success 201 {object} models.Booking
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/bookings [post]
func CreateBooking(c *fiber.Ctx) error {
	renterID := c.Locals("userID").(uint)
	var input createBookingInput
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	start, err := utils.ParseDate(input.StartDate)
	if err != nil {
		return utils.ValidationFailed(c, map[string]string{"start_date": "date"})
	}
	end, err := utils.ParseDate(input.EndDate)
	if err != nil {
		return utils.ValidationFailed(c, map[string]string{"end_date": "date"})
	}

	var pet models.Pet
	if err := db.DB.Where("status <> ?", models.PetDeleted).First(&pet, input.PetID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pet not found"})
	}
	if err := utils.CheckRentalWindow(&pet, renterID, start, end); err != nil {
		return utils.DomainError(c, err, "Failed to create booking")
	}

	booking := models.Booking{
		PetID:           pet.ID,
		RenterID:        renterID,
		OwnerID:         pet.OwnerID,
		StartDate:       start,
		EndDate:         end,
		Message:         input.Message,
		SpecialRequests: input.SpecialRequests,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		locked, err := utils.CheckAvailability(tx, pet.ID, start, end, 0)
		if err != nil {
			return err
		}
		// the listing may have changed between the first read and the lock
		if err := utils.CheckRentalWindow(locked, renterID, start, end); err != nil {
			return err
		}
		if err := booking.Price(locked.DailyRate, input.TotalAmount, config.App.ServiceFeePercentage); err != nil {
			return err
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		utils.NotifyQuietly(tx, utils.NotificationInput{
			UserID:     booking.OwnerID,
			Type:       models.NotifyBookingRequest,
			Title:      "New booking request",
			Message:    fmt.Sprintf("%s requested %s from %s to %s", renterName(tx, renterID), locked.Name, input.StartDate, input.EndDate),
			EntityID:   booking.ID,
			EntityType: "booking",
			Data:       map[string]any{"pet_id": locked.ID, "booking_id": booking.ID},
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrBookingConflict) {
			metrics.RecordBooking("conflict")
		} else {
			metrics.RecordBooking("error")
		}
		return utils.DomainError(c, err, "Failed to create booking")
	}

	metrics.RecordBooking("created")
	logger.Log.WithFields(map[string]any{
		"booking_id": booking.ID,
		"pet_id":     booking.PetID,
		"renter_id":  renterID,
	}).Info("booking created")
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func renterName(tx *gorm.DB, id uint) string {
	var u models.User
	if err := tx.Select("id", "full_name").First(&u, id).Error; err != nil || u.FullName == "" {
		return "Someone"
	}
	return u.FullName
}

// GetBookings lists the caller's bookings as renter, or as owner with as_owner=true.
func GetBookings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := utils.GetPagination(c)

	q := db.DB.Model(&models.Booking{})
	if utils.QueryBool(c, "as_owner") {
		q = q.Where("owner_id = ?", userID)
	} else {
		q = q.Where("renter_id = ?", userID)
	}
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.InternalError(c, err, "Failed to count bookings")
	}
	var bookings []models.Booking
	if err := q.Preload("Pet").Preload("Renter").Preload("Owner").
		Order("created_at DESC").Offset(p.Offset).Limit(p.Limit).Find(&bookings).Error; err != nil {
		return utils.InternalError(c, err, "Failed to fetch bookings")
	}
	return c.JSON(p.Envelope(bookings, total))
}

// GetBooking godoc
// @Summary Get a booking by ID
// @Tags bookings
// @Param id path int true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/bookings/{id} [get]
func GetBooking(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.BadID(c, "booking id")
	}
	var booking models.Booking
	if err := db.DB.Preload("Pet").Preload("Renter").Preload("Owner").First(&booking, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if !booking.IsParticipant(c.Locals("userID").(uint)) && !middleware.IsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not part of this booking"})
	}
	return c.JSON(booking)
}

// canSetBookingStatus says who may move a booking to next: the owner decides
// requests and completes rentals, either side may cancel.
func canSetBookingStatus(b *models.Booking, actorID uint, next models.BookingStatus) bool {
	switch next {
	case models.BookingAccepted, models.BookingRejected, models.BookingCompleted:
		return actorID == b.OwnerID
	case models.BookingCancelled:
		return b.IsParticipant(actorID)
	}
	return false
}

// UpdateBookingStatus godoc
// @Summary Move a booking along its lifecycle
// @Description pending -> accepted|rejected|cancelled, accepted -> completed|cancelled. Anything else is 409.
// @Tags bookings
// @Param id path int true "Booking ID"
// @Success 200 {object} models.Booking
// @Failure 403 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/bookings/{id}/status [put]
func UpdateBookingStatus(c *fiber.Ctx) error {
	actorID := c.Locals("userID").(uint)
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.BadID(c, "booking id")
	}
	var input struct {
		Status string `json:"status" validate:"required,oneof=pending accepted rejected cancelled completed"`
		Reason string `json:"reason" validate:"max=500"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	next := models.BookingStatus(input.Status)

	var booking models.Booking
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&booking, id).Error; err != nil {
			return err
		}
		if !booking.IsParticipant(actorID) || !canSetBookingStatus(&booking, actorID, next) {
			return errNotAllowed
		}
		if next == models.BookingAccepted && booking.Status == models.BookingPending {
			if err := utils.CheckAcceptedOverlap(tx, &booking); err != nil {
				return err
			}
		}

		if next == models.BookingCompleted {
			if _, err := booking.Complete(tx, actorID); err != nil {
				return err
			}
		} else if err := booking.UpdateStatus(tx, next, actorID, input.Reason); err != nil {
			return err
		}

		utils.NotifyBookingChange(tx, &booking, actorID)
		return nil
	})
	if errors.Is(err, errNotAllowed) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": fmt.Sprintf("You are not allowed to mark this booking %s", next),
		})
	}
	if err != nil {
		return utils.DomainError(c, err, "Failed to update booking")
	}

	metrics.RecordBooking(string(next))
	if next == models.BookingAccepted || next == models.BookingRejected {
		emailRenter(&booking)
	}
	return c.JSON(booking)
}

// emailRenter sends the accept/reject email when the renter allows email.
func emailRenter(b *models.Booking) {
	var renter models.User
	if err := db.DB.First(&renter, b.RenterID).Error; err != nil {
		return
	}
	settings, err := utils.NotificationSettingsFor(db.DB, renter.ID)
	if err != nil || !settings.EmailEnabled {
		return
	}
	var pet models.Pet
	db.DB.Select("id", "name").First(&pet, b.PetID)

	subject, body := utils.BookingStatusEmail(renter.FullName, pet.Name, string(b.Status), b.ID)
	if err := utils.SendEmail(renter.Email, subject, body); err != nil {
		logger.Log.WithError(err).WithField("booking_id", b.ID).Warn("failed to send booking email")
	}
}
