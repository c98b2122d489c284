package middleware

import "github.com/gofiber/fiber/v2"

// NoCacheHeaders forbids caching. Applied to every lifecycle endpoint so
// OTP and token responses never land in a shared cache.
func NoCacheHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		c.Set("Pragma", "no-cache")
		c.Set("Expires", "0")
		return c.Next()
	}
}
