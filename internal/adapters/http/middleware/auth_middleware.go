package middleware

import (
	"strings"

	"github.com/ekalavyajud/backend/internal/config"
	"github.com/ekalavyajud/backend/internal/pkg/jwt"
	"github.com/ekalavyajud/backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates the bearer session token and loads its identity
// into the request context
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return response.Unauthorized(c, "Bearer token required")
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := jwt.ValidateSessionToken(token, cfg.JWT.Secret)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Session token expired")
			}
			return response.Unauthorized(c, "Invalid session token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("email", claims.Email)
		c.Locals("userType", claims.UserType)

		return c.Next()
	}
}
