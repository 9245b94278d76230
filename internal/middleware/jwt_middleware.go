package middleware

import (
	"log"
	"strings"

	"oms/internal/models"
	"oms/internal/services"

	"github.com/gofiber/fiber/v2"
)

// identityKey is the fiber locals key holding the caller identity.
const identityKey = "identity"

// AuthRequired is a Fiber middleware to check for a valid JWT token. On
// success the caller identity is stored in the request locals.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		identity, err := authService.ValidateToken(parts[1])
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// Identity returns the authenticated caller stored by AuthRequired.
func Identity(c *fiber.Ctx) models.Identity {
	identity, _ := c.Locals(identityKey).(models.Identity)
	return identity
}

// Require gates a route on a role capability, e.g.
// Require(models.RoleName.CanManageCatalog).
func Require(capability func(models.RoleName) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !capability(Identity(c).Role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Insufficient permissions",
			})
		}
		return c.Next()
	}
}
