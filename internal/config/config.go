package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/punjabready/portal-api/pkg/database"
	"github.com/punjabready/portal-api/pkg/storage"
)

const devJWTSecret = "change-me-in-production"

type Config struct {
	AppEnv         string
	Debug          bool
	Port           string
	AllowedOrigins []string

	Database database.Config
	RedisURL string

	JWTSecret string
	JWTTTL    time.Duration

	Storage storage.Options

	MeiliSearchHost string
	MeiliMasterKey  string

	SentryDSN string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	LogLevel  string
	LogFormat string

	SeedAdmin         bool
	SeedAdminEmail    string
	SeedAdminPassword string
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "5000"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASS"),
			Name:     getEnv("DB_NAME", "punjab_ready"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		Storage: storage.Options{
			Driver:           getEnv("STORAGE_DRIVER", "local"),
			LocalDir:         getEnv("UPLOAD_DIR", "uploads"),
			CloudinaryURL:    os.Getenv("CLOUDINARY_URL"),
			CloudinaryFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "punjab_ready"),
		},

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		SentryDSN: os.Getenv("SENTRY_DSN"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@punjabready.gov.in"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
	}

	var err error
	if cfg.Debug, err = parseBool("APP_DEBUG", cfg.AppEnv != "production"); err != nil {
		return nil, err
	}
	if cfg.SeedAdmin, err = parseBool("SEED_ADMIN", false); err != nil {
		return nil, err
	}
	if cfg.Database.LogQueries, err = parseBool("DB_LOG_QUERIES", false); err != nil {
		return nil, err
	}

	if cfg.JWTTTL, err = parseDuration(getEnv("JWT_TTL", "720h")); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.RateLimitWindow, err = parseDuration(getEnv("RATE_LIMIT_WINDOW", "15m")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}
	if cfg.RateLimitRequests, err = strconv.Atoi(getEnv("RATE_LIMIT_REQUESTS", "100")); err != nil || cfg.RateLimitRequests < 1 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REQUESTS: %q", os.Getenv("RATE_LIMIT_REQUESTS"))
	}

	if cfg.Database.MaxOpenConns, err = strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25")); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	if cfg.Database.MaxIdleConns, err = strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5")); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}
	if cfg.Database.ConnMaxLifetime, err = parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "30m")); err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = devJWTSecret
	}

	if cfg.SeedAdmin && cfg.SeedAdminPassword == "" {
		return nil, errors.New("SEED_ADMIN_PASSWORD must be set when SEED_ADMIN is enabled")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

func parseBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
