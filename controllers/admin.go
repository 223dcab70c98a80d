package controllers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
	"gorm.io/gorm"
)

// ListUsers returns users for the admin console, optionally filtered by q
// over email, name and username.
func ListUsers(c *fiber.Ctx) error {
	p := utils.GetPagination(c)
	q := db.DB.Model(&models.User{})
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ? OR LOWER(username) LIKE ?", like, like, like)
	}
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.InternalError(c, err, "Failed to count users")
	}
	var users []models.User
	if err := q.Order("id DESC").Offset(p.Offset).Limit(p.Limit).Find(&users).Error; err != nil {
		return utils.InternalError(c, err, "Failed to get users")
	}
	return c.JSON(p.Envelope(users, total))
}

// UpdateUserRole assigns a role to a user
func UpdateUserRole(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.BadID(c, "user id")
	}
	var input struct {
		Role string `json:"role" validate:"required,oneof=user admin"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}

	var user models.User
	if db.DB.First(&user, id).RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	if user.ID == c.Locals("userID").(uint) && input.Role != models.RoleAdmin {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "You cannot remove your own admin role",
		})
	}

	if err := db.DB.Model(&user).Update("role", input.Role).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to assign role to user",
		})
	}

	logger.Log.WithFields(map[string]any{"user_id": user.ID, "role": input.Role}).Info("role changed")
	return c.JSON(fiber.Map{
		"message": "Role assigned successfully",
		"user":    user,
	})
}

// SetUserActive enables or disables an account. Disabling ends its sessions.
func SetUserActive(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.BadID(c, "user id")
	}
	var input struct {
		IsActive *bool `json:"is_active" validate:"required"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	if id == c.Locals("userID").(uint) && !*input.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "You cannot deactivate yourself"})
	}

	var user models.User
	if db.DB.First(&user, id).RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("is_active", *input.IsActive).Error; err != nil {
			return err
		}
		if !*input.IsActive {
			_, err := models.RevokeOtherSessions(tx, user.ID, "")
			return err
		}
		return nil
	})
	if err != nil {
		return utils.InternalError(c, err, "Failed to update user")
	}
	return c.JSON(fiber.Map{"message": "User updated", "user": user})
}

func SetPetFeatured(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.BadID(c, "pet id")
	}
	var input struct {
		Featured *bool `json:"featured" validate:"required"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}

	res := db.DB.Model(&models.Pet{}).Where("id = ? AND status <> ?", id, models.PetDeleted).
		Update("featured", *input.Featured)
	if res.Error != nil {
		return utils.InternalError(c, res.Error, "Failed to update pet")
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pet not found"})
	}
	return c.JSON(fiber.Map{"id": id, "featured": *input.Featured})
}

// UpdatePayoutStatus advances a payout through processing to completed or
// failed. A failed payout is refunded to the wallet in the same transaction.
func UpdatePayoutStatus(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.BadID(c, "payout id")
	}
	var input struct {
		Status        string `json:"status" validate:"required,oneof=processing completed failed"`
		FailureReason string `json:"failure_reason" validate:"max=500"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}

	var payout models.Payout
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payout, id).Error; err != nil {
			return err
		}
		if err := payout.UpdateStatus(tx, models.PayoutStatus(input.Status), input.FailureReason); err != nil {
			return err
		}
		utils.NotifyQuietly(tx, utils.NotificationInput{
			UserID:     payout.UserID,
			Type:       models.NotifyPayoutUpdated,
			Title:      "Payout " + input.Status,
			Message:    fmt.Sprintf("Your payout of $%.2f is now %s.", payout.Amount, input.Status),
			EntityID:   payout.ID,
			EntityType: "payout",
		})
		return nil
	})
	if err != nil {
		return utils.DomainError(c, err, "Failed to update payout")
	}
	return c.JSON(payout)
}
