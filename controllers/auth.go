package controllers

import (
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const forgotPasswordMessage = "If the email exists in our system, a password reset link has been sent."

type registerInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
}

type loginInput struct {
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// authResponse opens a session for user and returns the token pair.
func authResponse(c *fiber.Ctx, tx *gorm.DB, user *models.User, status int) error {
	session, err := models.CreateSession(tx, user.ID, c.IP(), c.Get(fiber.HeaderUserAgent), config.App.RefreshTokenTTL)
	if err != nil {
		return utils.InternalError(c, err, "Failed to create session")
	}
	access, refresh, err := utils.IssueTokens(user, session.ID)
	if err != nil {
		return utils.InternalError(c, err, "Failed to generate token")
	}
	return c.Status(status).JSON(fiber.Map{
		"token":         access,
		"refresh_token": refresh,
		"token_type":    "bearer",
		"expires_in":    int(config.App.AccessTokenTTL.Seconds()),
		"user":          user,
	})
}

// Register handles user registration
func Register(c *fiber.Ctx) error {
	var input registerInput
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	email := models.NormalizeEmail(input.Email)

	var count int64
	db.DB.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User with this email already exists",
		})
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return utils.InternalError(c, err, "Failed to hash password")
	}

	user := &models.User{
		Email:           email,
		Password:        hash,
		FullName:        input.FullName,
		Phone:           input.Phone,
		Role:            models.RoleUser,
		IsActive:        true,
		PrivacySettings: datatypes.NewJSONType(models.DefaultPrivacySettings()),
	}
	if err := db.DB.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "User with this email already exists",
			})
		}
		return utils.InternalError(c, err, "Failed to create user")
	}

	logger.Log.WithField("user_id", user.ID).Info("user registered")
	return authResponse(c, db.DB, user, fiber.StatusCreated)
}

// Login accepts a JSON body or an OAuth2 password form (username/password).
func Login(c *fiber.Ctx) error {
	var input loginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	email := input.Email
	if email == "" {
		email = input.Username
	}
	if email == "" || input.Password == "" {
		return utils.ValidationFailed(c, map[string]string{"email": "required", "password": "required"})
	}

	var user models.User
	err := db.DB.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if err != nil || !utils.CheckPassword(user.Password, input.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Incorrect email or password",
		})
	}
	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is deactivated"})
	}

	now := time.Now()
	db.DB.Model(&user).UpdateColumn("last_active_at", now)
	user.LastActiveAt = &now
	return authResponse(c, db.DB, &user, fiber.StatusOK)
}

// RefreshToken issues a new access token for a still-open session.
func RefreshToken(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}

	claims, err := utils.ParseToken(input.RefreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid refresh token"})
	}
	userID, _ := utils.ClaimUserID(claims)
	sid, _ := claims["sid"].(string)

	if _, err := models.ActiveSession(db.DB, sid, userID, time.Now()); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Session has ended"})
	}
	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil || !user.IsActive {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid refresh token"})
	}

	access, err := utils.IssueAccessToken(&user, sid)
	if err != nil {
		return utils.InternalError(c, err, "Failed to generate token")
	}
	return c.JSON(fiber.Map{
		"token":      access,
		"token_type": "bearer",
		"expires_in": int(config.App.AccessTokenTTL.Seconds()),
	})
}

// Logout ends the current session; its tokens stop working immediately.
func Logout(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	sid := c.Locals("sessionID").(string)
	if _, err := models.RevokeSession(db.DB, userID, sid); err != nil {
		return utils.InternalError(c, err, "Failed to log out")
	}
	return c.JSON(fiber.Map{"message": "Successfully logged out"})
}

// GetMe returns the authenticated user.
func GetMe(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(user)
}

func ChangePassword(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	var input struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	// accounts created through Google have no password to confirm
	if user.HasPassword() && !utils.CheckPassword(user.Password, input.CurrentPassword) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Current password is incorrect"})
	}

	hash, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return utils.InternalError(c, err, "Failed to hash password")
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password", hash).Error; err != nil {
			return err
		}
		_, err := models.RevokeOtherSessions(tx, userID, c.Locals("sessionID").(string))
		return err
	})
	if err != nil {
		return utils.InternalError(c, err, "Failed to change password")
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

// ListSessions shows the caller's open sessions, flagging the current one.
func ListSessions(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	current := c.Locals("sessionID").(string)

	var sessions []models.Session
	if err := db.DB.Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Order("last_seen_at DESC").Find(&sessions).Error; err != nil {
		return utils.InternalError(c, err, "Failed to load sessions")
	}
	for i := range sessions {
		sessions[i].Current = sessions[i].ID == current
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

func RevokeSession(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	ok, err := models.RevokeSession(db.DB, userID, c.Params("id"))
	if err != nil {
		return utils.InternalError(c, err, "Failed to revoke session")
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	return c.JSON(fiber.Map{"message": "Session revoked"})
}

// RevokeOtherSessions signs out everywhere except the current session.
func RevokeOtherSessions(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	n, err := models.RevokeOtherSessions(db.DB, userID, c.Locals("sessionID").(string))
	if err != nil {
		return utils.InternalError(c, err, "Failed to revoke sessions")
	}
	return c.JSON(fiber.Map{"message": "Other sessions revoked", "revoked": n})
}

// ForgotPassword always answers with the same message so that callers
// cannot probe which emails have accounts.
func ForgotPassword(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email" validate:"required,email"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	generic := fiber.Map{"message": forgotPasswordMessage}

	var user models.User
	err := db.DB.Where("email = ? AND is_active = ?", models.NormalizeEmail(input.Email), true).First(&user).Error
	if err != nil || !user.HasPassword() {
		return c.JSON(generic)
	}

	raw, err := utils.GenerateSecureToken(32)
	if err != nil {
		logger.Log.WithError(err).Error("failed to generate reset token")
		return c.JSON(generic)
	}
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND used_at IS NULL", user.ID).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.PasswordResetToken{
			UserID:    user.ID,
			TokenHash: models.HashToken(raw),
			ExpiresAt: time.Now().Add(config.App.PasswordResetTTL),
		}).Error
	})
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("failed to store reset token")
		return c.JSON(generic)
	}

	link := config.App.FrontendURL + "/reset-password?token=" + url.QueryEscape(raw)
	subject, body := utils.PasswordResetEmail(user.FullName, link)
	if err := utils.SendEmail(user.Email, subject, body); err != nil {
		logger.Log.WithError(err).WithField("user_id", user.ID).Error("failed to send reset email")
	}
	return c.JSON(generic)
}

func VerifyResetToken(c *fiber.Ctx) error {
	if _, err := models.FindValidResetToken(db.DB, c.Params("token"), time.Now()); err != nil {
		return c.JSON(fiber.Map{"valid": false, "message": "Invalid or expired reset token"})
	}
	return c.JSON(fiber.Map{"valid": true, "message": "Token is valid"})
}

// ResetPassword consumes the token, sets the password and ends every session.
func ResetPassword(c *fiber.Ctx) error {
	var input struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	hash, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return utils.InternalError(c, err, "Failed to hash password")
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		token, err := models.ConsumeResetToken(tx, input.Token, time.Now())
		if err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", token.UserID).Update("password", hash).Error; err != nil {
			return err
		}
		_, err = models.RevokeOtherSessions(tx, token.UserID, "")
		return err
	})
	if errors.Is(err, models.ErrTokenInvalid) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or expired reset token"})
	}
	if err != nil {
		return utils.InternalError(c, err, "Failed to reset password")
	}
	return c.JSON(fiber.Map{"message": "Password has been reset successfully"})
}
