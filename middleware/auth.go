// middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"contest-platform/services"

	"github.com/gofiber/fiber/v2"
)

// JWTAuthMiddleware validates the Bearer token and stores the token subject
// in locals under "auth_uid" for handlers to resolve.
func JWTAuthMiddleware(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authorization token missing",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			// no "Bearer " prefix, accept the raw value
			token = authHeader
		}

		sub, err := auth.ValidateToken(token)
		if err != nil {
			log.Printf("[AUTH] invalid token for %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals("auth_uid", sub)
		return c.Next()
	}
}

// OptionalJWTAuth populates "auth_uid" when a valid token is present but never
// rejects the request. Used on public reads that enrich their response for
// signed-in callers.
func OptionalJWTAuth(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if sub, err := auth.ValidateToken(token); err == nil {
			c.Locals("auth_uid", sub)
		}
		return c.Next()
	}
}
