package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manideeprkummitha/team-collab/internal/api"
	"github.com/manideeprkummitha/team-collab/internal/cache"
	"github.com/manideeprkummitha/team-collab/internal/config"
	"github.com/manideeprkummitha/team-collab/internal/db"
	"github.com/manideeprkummitha/team-collab/internal/middleware"
	"github.com/manideeprkummitha/team-collab/internal/observ"
	"github.com/manideeprkummitha/team-collab/internal/repository"
	"github.com/manideeprkummitha/team-collab/internal/repository/memory"
	"github.com/manideeprkummitha/team-collab/internal/repository/postgres"
	"github.com/manideeprkummitha/team-collab/internal/service"
	"github.com/manideeprkummitha/team-collab/internal/storage"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Config and logger.
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := make(map[string]api.HealthCheck)

	// 2. Store.
	var repos *repository.Repositories
	switch cfg.StoreBackend {
	case "memory":
		logger.Warn("using in-memory store; data is lost on restart")
		repos = memory.New().Repositories()
	default:
		database, err := db.New(ctx, db.Options{
			URL:      cfg.DatabaseURL,
			MaxConns: int32(cfg.DBPool.MaxConns),
			MinConns: int32(cfg.DBPool.MinConns),
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()

		if cfg.MigrateOnStart {
			if err := database.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		repos = postgres.NewRepositories(database.Pool())
		checks["postgres"] = database.Health
	}

	// 3. Optional membership cache and image URLs, assigned only when
	// configured.
	deps := service.Deps{Repos: repos, Logger: logger}

	if cfg.RedisURL != "" {
		memberCache, err := cache.NewMemberCache(ctx, cfg.RedisURL, cfg.MemberCacheTTL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer memberCache.Close()
		deps.Cache = memberCache
		checks["redis"] = memberCache.Ping
	}

	if cfg.S3.Bucket != "" {
		images, err := storage.NewS3ImageURLs(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("configure s3: %w", err)
		}
		deps.Images = images
	}

	svc := service.New(deps)

	// 4. HTTP server.
	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	defer limiter.Stop()

	router := api.NewRouter(svc, api.RouterConfig{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		RateLimiter: limiter,
		Checks:      checks,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting team-collab",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.StoreBackend),
			zap.Bool("member_cache", deps.Cache != nil),
			zap.Bool("s3_images", deps.Images != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
