package auth

import (
	"github.com/gofiber/fiber/v2"

	"sitepulse/internal/config"
)

// RequireAdmin guards a route with the admin token. The token is read from
// the auth cookie or a Bearer authorization header; anything invalid gets a
// 401 without reaching the handler.
func RequireAdmin(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(CookieName)
		if token == "" {
			token = TokenFromHeader(c.Get(fiber.HeaderAuthorization))
		}

		if _, err := Verify(cfg, token); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		return c.Next()
	}
}
