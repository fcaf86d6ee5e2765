package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

const (
	LockBackendPostgres = "postgres"
	LockBackendMemory   = "memory"
)

type Config struct {
	// Database
	DBHost            string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort            int           `envconfig:"DB_PORT" default:"5432"`
	DBUser            string        `envconfig:"DB_USER" default:"postgres"`
	DBPassword        string        `envconfig:"DB_PASSWORD"`
	DBName            string        `envconfig:"DB_NAME" default:"moderation_db"`
	DBSSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"50"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"25"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`

	// JWT, issued by the accounts service
	JWTSecret string `envconfig:"JWT_SECRET"`

	// Admin
	AdminEmails  string `envconfig:"ADMIN_EMAILS"`
	AdminUserIDs string `envconfig:"ADMIN_USER_IDS"`
	AdminToken   string `envconfig:"ADMIN_TOKEN"`

	// Server
	Port        string `envconfig:"PORT" default:"8080"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`
	AppEnv      string `envconfig:"APP_ENV" default:"development"`

	// Integrations, each optional
	SentryDSN           string `envconfig:"SENTRY_DSN"`
	FirebaseCredentials string `envconfig:"FIREBASE_CREDENTIALS"`
	CloudinaryCloudName string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `envconfig:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `envconfig:"CLOUDINARY_API_SECRET"`

	// Background jobs
	ExpirySchedule   string `envconfig:"EXPIRY_SCHEDULE" default:"@every 15m"`
	LogRetentionDays int    `envconfig:"LOG_RETENTION_DAYS" default:"30"`

	// Locking. A postgres lock pins one connection of a pool separate from
	// the query pool while held, and a report resolution holds two at once.
	// Size LOCK_MAX_CONNS at twice the expected concurrent resolutions;
	// acquisitions beyond that fail after LOCK_WAIT_TIMEOUT.
	LockBackend     string        `envconfig:"LOCK_BACKEND" default:"postgres"`
	LockMaxConns    int           `envconfig:"LOCK_MAX_CONNS" default:"20"`
	LockWaitTimeout time.Duration `envconfig:"LOCK_WAIT_TIMEOUT" default:"10s"`
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD environment variable is required")
	}
	if c.DBMaxOpenConns <= 0 || c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		return fmt.Errorf("invalid DB_MAX_OPEN_CONNS/DB_MAX_IDLE_CONNS")
	}
	if c.LogRetentionDays <= 0 {
		return fmt.Errorf("LOG_RETENTION_DAYS must be > 0")
	}
	switch c.LockBackend {
	case LockBackendPostgres:
		if c.LockMaxConns < 2 {
			return fmt.Errorf("LOCK_MAX_CONNS must be >= 2")
		}
		if c.LockWaitTimeout <= 0 {
			return fmt.Errorf("LOCK_WAIT_TIMEOUT must be > 0")
		}
	case LockBackendMemory:
	default:
		return fmt.Errorf("unknown LOCK_BACKEND %q", c.LockBackend)
	}
	if _, err := cron.ParseStandard(c.ExpirySchedule); err != nil {
		return fmt.Errorf("invalid EXPIRY_SCHEDULE: %w", err)
	}
	for _, id := range ParseCSV(c.AdminUserIDs) {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("ADMIN_USER_IDS: bad id %q", id)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + strconv.Itoa(c.DBPort) +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// ParseCSV splits a comma separated list, dropping blanks.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
