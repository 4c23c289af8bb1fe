package middleware

import (
	"github.com/gofiber/fiber/v2"

	"zanova/models"
)

// RequireRole gates a route to the given role labels. Must run after
// Protected so the user is in the request context.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization required",
			})
		}

		if !user.HasRole(roles...) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient role for this action",
			})
		}

		return c.Next()
	}
}

// RequireManagement is shorthand for the roles allowed to mutate
// campaigns, fields, contacts and assignments
func RequireManagement() fiber.Handler {
	return RequireRole(models.RoleManager, models.RoleAdmin)
}

// RequireSupervision covers the read-heavy monitoring surfaces
func RequireSupervision() fiber.Handler {
	return RequireRole(models.RoleSupervisor, models.RoleManager, models.RoleAdmin)
}
