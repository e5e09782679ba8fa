// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cit-submit/go-backend/internal/admin"
	"github.com/cit-submit/go-backend/internal/audit"
	"github.com/cit-submit/go-backend/internal/auth"
	"github.com/cit-submit/go-backend/internal/config"
	"github.com/cit-submit/go-backend/internal/core"
	"github.com/cit-submit/go-backend/internal/email"
	"github.com/cit-submit/go-backend/internal/health"
	"github.com/cit-submit/go-backend/internal/middleware"
	"github.com/cit-submit/go-backend/internal/policy"
	"github.com/cit-submit/go-backend/internal/server"
	"github.com/cit-submit/go-backend/internal/token"
	"github.com/cit-submit/go-backend/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	codec, err := token.New(cfg.Token)
	if err != nil {
		return err
	}
	logger.Info("token codec initialized", "format", cfg.Token.Format)

	allowlist := policy.NewAllowlist(cfg.Auth.AllowedDomains)
	mailer := email.NewSender(cfg.Email, logger)
	googleVerifier := auth.NewGoogleVerifier(cfg.Auth.GoogleRequireSignature)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authStore := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authStore,
		codec,
		userSvc,
		allowlist,
		googleVerifier,
		mailer,
		redis.Client,
		cfg.Auth,
		cfg.Token.RefreshTokenExpire,
	)
	authHandler := auth.NewHandler(authSvc)

	auditRepo := audit.NewRepository(db.DB)
	adminSvc := admin.NewService(db, userRepo, auditRepo, authStore, allowlist)
	statsHandler := admin.NewStatsHandler(admin.StatsConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})
	adminHandler := admin.NewHandler(adminSvc, statsHandler)

	healthHandler := health.NewHandler(db, redis)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if signedCodec, ok := codec.(*token.SignedCodec); ok {
		router.Get("/.well-known/jwks.json", signedCodec.JWKSHandler())
	}

	verifier := auth.NewAccessVerifier(codec)
	gate := middleware.Authenticator(verifier, userSvc)
	roleLimiter := middleware.RoleRateLimiter(
		redis.Client,
		middleware.DefaultRoleLimits,
	)
	// Per-role limits need the store-resolved role, so the limiter sits
	// inside the gate on every authenticated group.
	authenticator := func(next http.Handler) http.Handler {
		return gate(roleLimiter(next))
	}
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticator)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	go sweepRefreshTokens(ctx, authSvc, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func sweepRefreshTokens(
	ctx context.Context,
	authSvc *auth.Service,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := authSvc.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("refresh token sweep failed", "error", err)
				continue
			}
			if purged > 0 {
				logger.Info("purged expired refresh tokens", "count", purged)
			}
		}
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
