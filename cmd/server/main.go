package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/punjabready/portal-api/internal/bootstrap"
	"github.com/punjabready/portal-api/internal/config"
	"github.com/punjabready/portal-api/internal/server"
	"github.com/punjabready/portal-api/pkg/database"
	"github.com/punjabready/portal-api/pkg/logging"
	"github.com/punjabready/portal-api/pkg/storage"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}

	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stdout,
	})

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			logging.Warn().Err(err).Msg("sentry init failed, continuing without error reporting")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logging.Error().Err(err).Msg("failed to close database")
		}
	}()

	if err := bootstrap.Migrate(db); err != nil {
		logging.Fatal().Err(err).Msg("migration failed")
	}
	if cfg.SeedAdmin {
		if err := bootstrap.SeedAdmin(context.Background(), db, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			logging.Fatal().Err(err).Msg("failed to seed admin user")
		}
	}

	redisClient := connectRedis(cfg.RedisURL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	files, err := storage.New(cfg.Storage)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize file storage")
	}

	srv := server.NewServer(cfg, db, redisClient, files)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("server exited with error")
		}
	case sig := <-quit:
		logging.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}

// connectRedis returns nil when url is empty or the server is unreachable;
// callers fall back to in-process rate limiting and alert delivery.
func connectRedis(url string) *redis.Client {
	if url == "" {
		logging.Warn().Msg("REDIS_URL not set, using in-memory rate limiter and alert feed")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logging.Warn().Err(err).Msg("invalid REDIS_URL, continuing without redis")
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logging.Warn().Err(err).Msg("redis unreachable, continuing without redis")
		_ = client.Close()
		return nil
	}

	logging.Info().Msg("connected to redis")
	return client
}
