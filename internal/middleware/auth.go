package middleware

import (
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// JWTProtected verifies HS256 access tokens issued by the accounts service
// and stores the parsed token in Locals("user").
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// AdminAuth runs JWTProtected unless the request carries X-Admin-Token, in
// which case AdminRequired checks the token instead.
func AdminAuth(cfg *config.Config) fiber.Handler {
	jwtCheck := JWTProtected(cfg)
	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") != "" {
			return c.Next()
		}
		return jwtCheck(c)
	}
}
