package utils

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/models"
	"gorm.io/gorm"
)

var errBadID = errors.New("invalid id")

// ParamID parses a positive integer route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errBadID
	}
	return uint(id), nil
}

// BadID answers 400 for an unparsable route id.
func BadID(c *fiber.Ctx, name string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid " + name})
}

// QueryFloat returns the parsed query value and whether it was present and valid.
func QueryFloat(c *fiber.Ctx, name string) (float64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, err == nil
}

func QueryBool(c *fiber.Ctx, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}

// InternalError logs err and answers 500 with a generic message.
func InternalError(c *fiber.Ctx, err error, message string) error {
	logger.Log.WithError(err).WithFields(map[string]any{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error(message)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": message})
}

// DomainError maps known domain errors to their HTTP status and falls back
// to 500 for anything else.
func DomainError(c *fiber.Ctx, err error, fallback string) error {
	status := 0
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, models.ErrBookingConflict),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrOfferClosed),
		errors.Is(err, models.ErrDuplicateReview),
		errors.Is(err, gorm.ErrDuplicatedKey):
		status = fiber.StatusConflict
	case errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrWalletLimit),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrEmptyMessage),
		errors.Is(err, models.ErrTokenInvalid),
		errors.Is(err, ErrInvalidRange),
		errors.Is(err, ErrOutsideListing),
		errors.Is(err, ErrRentalLength),
		errors.Is(err, ErrPetNotBookable),
		errors.Is(err, ErrOwnPetBooking),
		errors.Is(err, ErrUnsupportedFile),
		errors.Is(err, ErrFileTooLarge):
		status = fiber.StatusBadRequest
	}
	if status == 0 {
		return InternalError(c, err, fallback)
	}
	message := err.Error()
	if status == fiber.StatusNotFound {
		message = "Not found"
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}
