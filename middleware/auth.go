package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
)

// sessions are touched at most this often
const lastSeenResolution = 5 * time.Minute

func Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(config.App.JWTSecret),
		ErrorHandler: jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return unauthorized(c, "Invalid token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c, "Invalid token claims")
			}
			if err := authenticate(c, claims); err != nil {
				logger.Log.WithError(err).Debug("rejected bearer token")
				return unauthorized(c, "Invalid or expired token")
			}
			return c.Next()
		},
	})
}

// OptionalAuth sets the caller's identity when a valid bearer token is sent
// and otherwise lets the request through anonymously.
func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Next()
		}
		claims, err := utils.ParseToken(strings.TrimPrefix(header, "Bearer "), utils.TokenTypeAccess)
		if err == nil {
			_ = authenticate(c, claims)
		}
		return c.Next()
	}
}

// authenticate checks the claims against a live session and sets the
// userID, role and sessionID locals.
func authenticate(c *fiber.Ctx, claims jwt.MapClaims) error {
	if claims["type"] != utils.TokenTypeAccess {
		return fmt.Errorf("token type %v is not an access token", claims["type"])
	}
	userID, err := extractUserID(claims)
	if err != nil {
		return err
	}
	role, err := extractRole(claims)
	if err != nil {
		return err
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return fmt.Errorf("no session in token")
	}

	now := time.Now()
	session, err := models.ActiveSession(db.DB, sid, userID, now)
	if err != nil {
		return fmt.Errorf("session %s: %w", sid, err)
	}
	if now.Sub(session.LastSeenAt) > lastSeenResolution {
		db.DB.Model(session).UpdateColumn("last_seen_at", now)
	}

	c.Locals("userID", userID)
	c.Locals("role", role)
	c.Locals("sessionID", sid)
	return nil
}

// extractUserID handles multiple potential formats of user ID in token
func extractUserID(claims jwt.MapClaims) (uint, error) {
	idVal := claims["id"]
	if idVal == nil {
		return 0, fmt.Errorf("no ID found in claims")
	}

	switch v := idVal.(type) {
	case float64:
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse ID string: %v", err)
		}
		return uint(parsed), nil
	case uint:
		return v, nil
	case int:
		return uint(v), nil
	default:
		return 0, fmt.Errorf("unsupported ID type: %T", v)
	}
}

func extractRole(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return "", fmt.Errorf("no role found in claims")
	}
	return role, nil
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "Unauthorized",
		"message": message,
	})
}

// jwtError handles JWT errors
func jwtError(c *fiber.Ctx, err error) error {
	return unauthorized(c, "Invalid or expired token")
}

// UserID returns the authenticated caller, or 0.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

func IsAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals("role").(string)
	return role == models.RoleAdmin
}
