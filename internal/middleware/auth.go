package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fypdesk/fyp-api/internal/utils"
)

// RequireAuth refuses requests that carry no authenticated user. It runs
// after JWTProtected, which binds the user to the request locals.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("user_id") == nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		return c.Next()
	}
}
