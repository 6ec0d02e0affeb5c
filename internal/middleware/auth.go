package middleware

import (
	"savanna-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const operatorLocal = "operator"

// RequireAuth guards admin routes: an operator must be in the session.
// Public routes (active listings, lead submit, image resolution) never
// pass through this.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		op := c.Locals(operatorLocal)
		if op == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetOperator returns the session operator from Locals (nil if not logged in).
func GetOperator(c *fiber.Ctx) interface{} {
	return c.Locals(operatorLocal)
}
