package middleware

import (
	"strings"

	"junktrunk-api/internal/repository"
	"junktrunk-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// OptionalAuth resolves the scanning user from a bearer token when one is
// present. Requests without a token proceed anonymously; a malformed or
// expired token is still rejected so a client can tell its session died.
func OptionalAuth(userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := jwt.ValidateToken(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		user, err := userRepo.FindByID(claims.UserID)
		if err != nil || !user.IsActive {
			return c.Status(401).JSON(fiber.Map{"error": "User not found"})
		}

		c.Locals("user_id", user.ID.String())
		return c.Next()
	}
}
