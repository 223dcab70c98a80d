package middleware

import (
	"slices"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/models"
)

// RequireRole checks the caller's current role in the database, so a
// demotion takes effect before the token expires. Use after Protected.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)

		var dbUser models.User
		if err := db.DB.Select("id", "role", "is_active").First(&dbUser, userID).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		if !dbUser.IsActive || !slices.Contains(roles, dbUser.Role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You don't have the required role to perform this action",
			})
		}

		c.Locals("role", dbUser.Role)
		return c.Next()
	}
}
