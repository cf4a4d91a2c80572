package middleware

import (
	"strings"

	"github.com/eshophub/storefront/internal/auth"
	"github.com/gofiber/fiber/v2"
)

// SessionSource exposes the active session for token checks. Satisfied by
// *auth.Client.
type SessionSource interface {
	CurrentSession() *auth.Session
}

// NewAuthMiddleware guards the /api group: the Bearer token must match the
// active session's ID token. The session model is single-user, mirroring a
// per-browser storefront, so no token registry is needed.
func NewAuthMiddleware(sessions SessionSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: missed header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: Invalid header format"})
		}
		token := parts[1]

		session := sessions.CurrentSession()
		if session == nil || session.IDToken != token {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: Invalid token"})
		}

		c.Locals("uid", session.UID)
		return c.Next()
	}
}
