package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/jobs"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/moderation"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout),
		pgLogHandler,
	)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Moderation core
	locker, closeLocker, err := newLocker(cfg)
	if err != nil {
		slog.Error("lock pool init failed", "error", err)
		os.Exit(1)
	}
	notifier := services.NewNotificationService(db, newPushSender(ctx, cfg))
	content := services.NewContentGateway(db, newArtifactStore(cfg))

	engine := moderation.NewEngine(store.NewSanctionLedger(db), notifier, content, locker)
	reports := moderation.NewReports(store.NewReportStore(db), locker)
	orchestrator := moderation.NewOrchestrator(reports, engine, store.NewReputationLedger(db), notifier, content, locker)

	// Background jobs
	scheduler := jobs.NewScheduler(engine, func(ctx context.Context, now time.Time) (int64, error) {
		return logging.PurgeSystemLogs(ctx, db, now, cfg.LogRetentionDays)
	}, cfg.ExpirySchedule)
	if err := scheduler.Start(ctx); err != nil {
		slog.Error("scheduler start failed", "error", err)
		os.Exit(1)
	}

	// Handlers
	healthHandler := handlers.NewHealthHandler(func() error { return database.Ping(db) })
	moderationHandler := handlers.NewModerationHandler(orchestrator, handlers.NewValidator())

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, middleware.DBRoleLookup(db), healthHandler, moderationHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "lock_backend", cfg.LockBackend)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	scheduler.Stop()
	cancel()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := closeLocker(); err != nil {
		slog.Error("lock pool close error", "error", err)
	}
	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func newLocker(cfg *config.Config) (moderation.Locker, func() error, error) {
	if cfg.LockBackend == config.LockBackendMemory {
		return moderation.NewKeyedMutex(), func() error { return nil }, nil
	}
	locker, err := store.OpenAdvisoryLocker(cfg.DSN(), cfg.LockMaxConns, cfg.LockWaitTimeout)
	if err != nil {
		return nil, nil, err
	}
	return locker, locker.Close, nil
}

func newPushSender(ctx context.Context, cfg *config.Config) services.PushSender {
	fcm := services.NewFCMService(ctx, cfg.FirebaseCredentials)
	if fcm == nil {
		slog.Info("push delivery disabled")
		return nil
	}
	return fcm
}

func newArtifactStore(cfg *config.Config) services.ArtifactStore {
	artifacts, err := services.NewCloudinaryArtifacts(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		slog.Error("cloudinary init failed", "error", err)
		return nil
	}
	if artifacts == nil {
		return nil
	}
	return artifacts
}
