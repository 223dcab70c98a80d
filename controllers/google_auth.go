package controllers

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/redis"
	"github.com/meinhoongagan/petrent-api/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const oauthCodeNamespace = "oauth_code"

var (
	errOAuthUnavailable = errors.New("google sign-in is not configured")
	errCodeUsed         = errors.New("authorization code already used")
	errEmailUnverified  = errors.New("google account email is not verified")
	errDomainNotAllowed = errors.New("email domain is not allowed")
	errAccountInactive  = errors.New("account is deactivated")
)

// GoogleAuthURL returns the consent screen URL.
func GoogleAuthURL(c *fiber.Ctx) error {
	if utils.GoogleOAuth == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": errOAuthUnavailable.Error()})
	}
	state, err := utils.GenerateSecureToken(16)
	if err != nil {
		return utils.InternalError(c, err, "Failed to generate state")
	}
	return c.JSON(fiber.Map{"auth_url": utils.GoogleOAuth.AuthCodeURL(state), "state": state})
}

// GoogleLogin exchanges a code posted by the frontend.
func GoogleLogin(c *fiber.Ctx) error {
	var input struct {
		Code string `json:"code" validate:"required"`
	}
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}

	user, err := googleSignIn(c.UserContext(), input.Code)
	switch {
	case errors.Is(err, errOAuthUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, errAccountInactive):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is deactivated"})
	case errors.Is(err, errCodeUsed):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authorization code already used"})
	case errors.Is(err, utils.ErrTokenExchange):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Failed to exchange authorization code"})
	case errors.Is(err, utils.ErrInvalidIDToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid Google ID token"})
	case errors.Is(err, errEmailUnverified), errors.Is(err, errDomainNotAllowed):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return utils.InternalError(c, err, "Google sign-in failed")
	}
	return authResponse(c, db.DB, user, fiber.StatusOK)
}

// GoogleCallback is the redirect target registered with Google. It always
// answers with a redirect to the frontend.
func GoogleCallback(c *fiber.Ctx) error {
	fail := func(reason string) error {
		return c.Redirect(config.App.FrontendURL+"/auth/error?message="+url.QueryEscape(reason), fiber.StatusFound)
	}
	if e := c.Query("error"); e != "" {
		return fail(e)
	}
	code := c.Query("code")
	if code == "" {
		return fail("missing_code")
	}

	user, err := googleSignIn(c.UserContext(), code)
	switch {
	case errors.Is(err, errCodeUsed):
		return fail("code_already_used")
	case errors.Is(err, utils.ErrTokenExchange):
		return fail("token_exchange_failed")
	case errors.Is(err, utils.ErrInvalidIDToken):
		return fail("invalid_id_token")
	case errors.Is(err, errDomainNotAllowed):
		return fail("domain_not_allowed")
	case errors.Is(err, errEmailUnverified):
		return fail("email_not_verified")
	case errors.Is(err, errAccountInactive):
		return fail("account_deactivated")
	case errors.Is(err, errOAuthUnavailable):
		return fail("oauth_unavailable")
	case err != nil:
		logger.Log.WithError(err).Error("google callback failed")
		return fail("server_error")
	}

	session, err := models.CreateSession(db.DB, user.ID, c.IP(), c.Get(fiber.HeaderUserAgent), config.App.RefreshTokenTTL)
	if err != nil {
		logger.Log.WithError(err).Error("failed to create session")
		return fail("server_error")
	}
	access, refresh, err := utils.IssueTokens(user, session.ID)
	if err != nil {
		return fail("server_error")
	}
	q := url.Values{"token": {access}, "refresh_token": {refresh}}
	return c.Redirect(config.App.FrontendURL+"/auth/success?"+q.Encode(), fiber.StatusFound)
}

// googleSignIn claims the code, exchanges it and returns the local user,
// creating or linking the account by verified email.
func googleSignIn(ctx context.Context, code string) (*models.User, error) {
	if utils.GoogleOAuth == nil || !redis.Enabled() {
		return nil, errOAuthUnavailable
	}

	claimed, err := redis.ClaimOnce(ctx, oauthCodeNamespace, code, config.App.OAuthCodeTTL)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, errCodeUsed
	}

	profile, err := utils.GoogleOAuth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if !profile.VerifiedEmail || profile.Email == "" {
		return nil, errEmailUnverified
	}
	email := models.NormalizeEmail(profile.Email)
	if !utils.EmailDomainAllowed(email, config.App.AllowedDomains()) {
		return nil, errDomainNotAllowed
	}

	var user models.User
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("google_id = ?", profile.ID).Limit(1).Find(&user)
		if res.Error != nil {
			return res.Error
		}
		if user.ID == 0 {
			if err := tx.Where("email = ?", email).Limit(1).Find(&user).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		if user.ID == 0 {
			googleID := profile.ID
			user = models.User{
				Email:           email,
				FullName:        profile.Name,
				AvatarURL:       profile.Picture,
				Role:            models.RoleUser,
				IsVerified:      true,
				IsActive:        true,
				GoogleID:        &googleID,
				OAuthProvider:   "google",
				PrivacySettings: datatypes.NewJSONType(models.DefaultPrivacySettings()),
				LastActiveAt:    &now,
			}
			return tx.Create(&user).Error
		}

		updates := map[string]any{"last_active_at": now, "is_verified": true}
		if user.GoogleID == nil {
			updates["google_id"] = profile.ID
			updates["oauth_provider"] = "google"
		}
		if user.AvatarURL == "" && profile.Picture != "" {
			updates["avatar_url"] = profile.Picture
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, user.ID).Error
	})
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errAccountInactive
	}
	return &user, nil
}
