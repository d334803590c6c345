package middleware

import (
	"property-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUser(c) == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) *SessionUser {
	u, _ := c.Locals(userLocal).(*SessionUser)
	return u
}
