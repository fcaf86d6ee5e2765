package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	isAdmin middleware.RoleLookup,
	healthHandler *handlers.HealthHandler,
	moderationHandler *handlers.ModerationHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Moderation: user endpoints (protected)
	api.Post("/reports", middleware.JWTProtected(cfg), moderationHandler.CreateReport)

	// Admin moderation console (JWT or admin token, then admin required)
	admin := api.Group("/admin/moderation", middleware.AdminAuth(cfg), middleware.AdminRequired(cfg, isAdmin))
	admin.Get("/reports", moderationHandler.ListReports)
	admin.Get("/reports/:id", moderationHandler.GetReport)
	admin.Post("/reports/:id/resolve", moderationHandler.ResolveReport)
	admin.Post("/reports/:id/dismiss", moderationHandler.DismissReport)
	admin.Post("/reports/:id/reopen", moderationHandler.ReopenReport)
	admin.Post("/sanctions", moderationHandler.ApplySanction)
	admin.Post("/sanctions/:id/revoke", moderationHandler.RevokeSanction)
	admin.Get("/users/:id/sanctions", moderationHandler.UserSanctions)
}
