package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuth guards the privileged policy endpoints. The caller presents a
// bearer key which is verified against the configured bcrypt hash; on
// success the request proceeds as the administrator identity.
func AdminAuth(keyHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if keyHash == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "admin access not configured")
		}

		header := c.Get(fiber.HeaderAuthorization)
		key, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || key == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer key")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid admin key")
		}

		return c.Next()
	}
}
