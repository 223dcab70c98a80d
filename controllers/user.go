package controllers

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

type updateProfileInput struct {
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=100"`
	Username *string `json:"username" validate:"omitempty,max=30"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
	Phone    *string `json:"phone" validate:"omitempty,max=30"`
	Location *string `json:"location" validate:"omitempty,max=200"`
}

// usernameTaken reports whether another user already holds username.
func usernameTaken(tx *gorm.DB, username string, exceptID uint) (bool, error) {
	var count int64
	err := tx.Model(&models.User{}).
		Where("LOWER(username) = ? AND id <> ?", strings.ToLower(username), exceptID).
		Count(&count).Error
	return count > 0, err
}

// UpdateProfile godoc
// @Summary Update the caller's profile
// @Tags users
// @Router /api/users/me [patch]
func UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	var input updateProfileInput
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}

	updates := map[string]any{}
	if input.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*input.FullName)
	}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if !usernamePattern.MatchString(username) {
			return utils.ValidationFailed(c, map[string]string{"username": "alphanum_underscore,min=3,max=30"})
		}
		taken, err := usernameTaken(db.DB, username, userID)
		if err != nil {
			return utils.InternalError(c, err, "Failed to check username")
		}
		if taken {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username is already taken"})
		}
		updates["username"] = username
	}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Location != nil {
		updates["location"] = *input.Location
	}

	if len(updates) > 0 {
		if err := db.DB.Model(&models.User{ID: userID}).Updates(updates).Error; err != nil {
			return utils.DomainError(c, err, "Failed to update profile")
		}
	}
	return GetMe(c)
}

// DeactivateAccount turns the account off and ends every session.
func DeactivateAccount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	var input struct {
		Password string `json:"password"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if user.HasPassword() && !utils.CheckPassword(user.Password, input.Password) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Password is incorrect"})
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("is_active", false).Error; err != nil {
			return err
		}
		_, err := models.RevokeOtherSessions(tx, userID, "")
		return err
	})
	if err != nil {
		return utils.InternalError(c, err, "Failed to deactivate account")
	}
	logger.Log.WithField("user_id", userID).Info("account deactivated")
	return c.JSON(fiber.Map{"message": "Account deactivated"})
}

func UploadAvatar(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	fh, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is required"})
	}
	url, err := utils.UploadImage(c.UserContext(), fh, "avatars", fmt.Sprintf("user_%d", userID))
	if err != nil {
		return utils.DomainError(c, err, "Failed to upload avatar")
	}
	if err := db.DB.Model(&models.User{ID: userID}).Update("avatar_url", url).Error; err != nil {
		return utils.InternalError(c, err, "Failed to save avatar")
	}
	return c.JSON(fiber.Map{"avatar_url": url})
}

func DeleteAvatar(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	if err := db.DB.Model(&models.User{ID: userID}).Update("avatar_url", "").Error; err != nil {
		return utils.InternalError(c, err, "Failed to remove avatar")
	}
	return c.JSON(fiber.Map{"message": "Avatar removed"})
}

func GetPrivacySettings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	var user models.User
	if err := db.DB.Select("id", "privacy_settings").First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(user.PrivacySettings.Data())
}

// UpdatePrivacySettings applies a partial update; omitted switches keep their value.
func UpdatePrivacySettings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	var input struct {
		ShowEmail     *bool `json:"show_email"`
		ShowPhone     *bool `json:"show_phone"`
		ShowLocation  *bool `json:"show_location"`
		AllowMessages *bool `json:"allow_messages"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var user models.User
	if err := db.DB.Select("id", "privacy_settings").First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	settings := user.PrivacySettings.Data()
	if input.ShowEmail != nil {
		settings.ShowEmail = *input.ShowEmail
	}
	if input.ShowPhone != nil {
		settings.ShowPhone = *input.ShowPhone
	}
	if input.ShowLocation != nil {
		settings.ShowLocation = *input.ShowLocation
	}
	if input.AllowMessages != nil {
		settings.AllowMessages = *input.AllowMessages
	}

	err := db.DB.Model(&models.User{ID: userID}).
		Update("privacy_settings", datatypes.NewJSONType(settings)).Error
	if err != nil {
		return utils.InternalError(c, err, "Failed to update privacy settings")
	}
	return c.JSON(settings)
}

func UsernameAvailable(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.Query("username"))
	if !usernamePattern.MatchString(username) {
		return utils.ValidationFailed(c, map[string]string{"username": "alphanum_underscore,min=3,max=30"})
	}
	taken, err := usernameTaken(db.DB, username, 0)
	if err != nil {
		return utils.InternalError(c, err, "Failed to check username")
	}
	return c.JSON(fiber.Map{"username": username, "available": !taken})
}

// GetPublicProfile godoc
// @Summary Public profile of a user, filtered by their privacy settings
// @Tags users
// @Param id path int true "User ID"
// @Router /api/users/{id} [get]
func GetPublicProfile(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.BadID(c, "user id")
	}
	var user models.User
	if err := db.DB.Where("is_active = ?", true).First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	summary, err := models.SummarizeReviews(db.DB, models.EntityUser, user.ID)
	if err != nil {
		return utils.InternalError(c, err, "Failed to load reviews")
	}
	var activePets int64
	db.DB.Model(&models.Pet{}).Where("owner_id = ? AND status = ?", user.ID, models.PetActive).Count(&activePets)

	return c.JSON(fiber.Map{
		"user":        user.PublicProfile(),
		"reviews":     summary,
		"active_pets": activePets,
	})
}

// GetDashboardStats collects the numbers shown on the caller's dashboard.
func GetDashboardStats(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var pets struct {
		Total     int64
		Active    int64
		Views     int64
		Favorites int64
	}
	err := db.DB.Model(&models.Pet{}).
		Select("COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) AS active, "+
			"COALESCE(SUM(view_count), 0) AS views, "+
			"COALESCE(SUM(favorite_count), 0) AS favorites").
		Where("owner_id = ? AND status <> ?", userID, models.PetDeleted).
		Scan(&pets).Error
	if err != nil {
		return utils.InternalError(c, err, "Failed to load pet stats")
	}

	var byStatus []struct {
		Status string
		Total  int64
	}
	if err := db.DB.Model(&models.Booking{}).Select("status, COUNT(*) AS total").
		Where("owner_id = ?", userID).Group("status").Scan(&byStatus).Error; err != nil {
		return utils.InternalError(c, err, "Failed to load booking stats")
	}
	ownerBookings := map[string]int64{}
	for _, s := range []models.BookingStatus{models.BookingPending, models.BookingAccepted, models.BookingRejected, models.BookingCancelled, models.BookingCompleted} {
		ownerBookings[string(s)] = 0
	}
	for _, row := range byStatus {
		ownerBookings[row.Status] = row.Total
	}

	var renterBookings, unread int64
	db.DB.Model(&models.Booking{}).Where("renter_id = ?", userID).Count(&renterBookings)
	db.DB.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&unread)

	return c.JSON(fiber.Map{
		"pets": fiber.Map{
			"total":     pets.Total,
			"active":    pets.Active,
			"views":     pets.Views,
			"favorites": pets.Favorites,
		},
		"bookings_as_owner":    ownerBookings,
		"bookings_as_renter":   renterBookings,
		"unread_notifications": unread,
		"wallet_balance":       user.WalletBalance,
	})
}

func GetWalletBalance(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	var user models.User
	if err := db.DB.Select("id", "wallet_balance").First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(fiber.Map{"wallet_balance": user.WalletBalance})
}

// UpdateWallet posts a deposit or withdrawal through the ledger.
func UpdateWallet(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	var input struct {
		Type   string  `json:"type" validate:"required,oneof=deposit withdrawal"`
		Amount float64 `json:"amount" validate:"required,gt=0"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}

	var entry *models.Transaction
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = models.PostWalletEntry(tx, models.WalletEntry{
			UserID:      userID,
			Type:        models.TransactionType(input.Type),
			Amount:      input.Amount,
			Description: "Wallet " + input.Type,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return utils.DomainError(c, err, "Failed to update wallet")
	}
	logger.Log.WithFields(map[string]any{
		"user_id": userID,
		"type":    input.Type,
		"amount":  entry.Amount,
	}).Info("wallet entry posted")
	return c.JSON(fiber.Map{"wallet_balance": entry.BalanceAfter, "transaction": entry})
}
