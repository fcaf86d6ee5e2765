package middleware

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleLookup reports whether a user holds the admin role.
type RoleLookup func(ctx context.Context, userID uuid.UUID) bool

// DBRoleLookup checks the users.role column.
func DBRoleLookup(db *gorm.DB) RoleLookup {
	return func(ctx context.Context, userID uuid.UUID) bool {
		var user models.User
		if err := db.WithContext(ctx).Select("id", "role").First(&user, "id = ?", userID).Error; err != nil {
			return false
		}
		return user.Role == "admin"
	}
}

// AdminRequired lets a request through when one of these holds:
// 1. X-Admin-Token matches ADMIN_TOKEN and X-Admin-ID names the acting admin
// 2. the JWT email or subject is listed in ADMIN_EMAILS / ADMIN_USER_IDS
// 3. the JWT subject has the admin role
// The acting admin id is stored for GetAdminID. Mount after JWTProtected
// unless only token access is wanted.
func AdminRequired(cfg *config.Config, isAdmin RoleLookup) fiber.Handler {
	adminEmails := config.ParseCSV(cfg.AdminEmails)
	adminUserIDs := config.ParseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			adminID, err := uuid.Parse(c.Get("X-Admin-ID"))
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
					Error: true, Message: "X-Admin-ID header is required with X-Admin-Token",
				})
			}
			c.Locals(adminIDKey, adminID)
			return c.Next()
		}

		claims, err := claimsFrom(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		email, _ := claims["email"].(string)
		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid claims",
			})
		}

		if contains(adminEmails, email) || contains(adminUserIDs, sub) ||
			(isAdmin != nil && isAdmin(c.UserContext(), userID)) {
			c.Locals(adminIDKey, userID)
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
