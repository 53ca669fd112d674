// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smartpro-edu/smartpro/internal/account"
	"github.com/smartpro-edu/smartpro/internal/admin"
	"github.com/smartpro-edu/smartpro/internal/auth"
	"github.com/smartpro-edu/smartpro/internal/config"
	"github.com/smartpro-edu/smartpro/internal/core"
	"github.com/smartpro-edu/smartpro/internal/docstore"
	"github.com/smartpro-edu/smartpro/internal/health"
	"github.com/smartpro-edu/smartpro/internal/identity"
	"github.com/smartpro-edu/smartpro/internal/material"
	"github.com/smartpro-edu/smartpro/internal/middleware"
	"github.com/smartpro-edu/smartpro/internal/server"
	"github.com/smartpro-edu/smartpro/internal/subscription"
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

	if cfg.Database.AutoMigrate {
		if err := core.Migrate(ctx, db.DB.DB); err != nil {
			return err
		}
		reportMigrationStatus(ctx, db.DB.DB, logger)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := identity.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.KeyID(),
	)

	notifier := identity.NewRedisNotifier(redis.Client, cfg.Redis.EventChannel, logger)
	go func() {
		if err := notifier.Run(ctx); err != nil {
			logger.Error("identity event relay stopped", "error", err)
		}
	}()

	provider := identity.NewProvider(identity.ProviderConfig{
		Credentials:     identity.NewCredentialRepository(db.DB),
		Sessions:        identity.NewSessionRepository(db.DB),
		Tokens:          jwtManager,
		Revoker:         identity.NewRedisRevoker(redis.Client),
		Notifier:        notifier,
		Hasher:          identity.NewHasher(identity.DefaultHashParams),
		Policy:          passwordPolicy(cfg.Identity),
		RefreshTokenTTL: cfg.JWT.RefreshTokenExpire,
		Logger:          logger,
	})

	store := docstore.NewPostgresStore(db.DB)

	accountRepo := account.NewRepository(store, logger)
	accountSvc := account.NewService(accountRepo)
	accountHandler := account.NewHandler(accountSvc)

	resolver := auth.NewResolver(accountRepo, cfg.Bootstrap, logger)
	authSvc := auth.NewService(provider, resolver, accountRepo, logger)
	authHandler := auth.NewHandler(authSvc)

	subscriptionSvc := subscription.NewService(subscription.NewRepository(store, logger))
	subscriptionHandler := subscription.NewHandler(subscriptionSvc)

	materialSvc := material.NewService(material.NewRepository(store, logger))
	materialHandler := material.NewHandler(materialSvc)

	healthHandler := health.NewHandler(
		health.Check{Name: "database", Checker: db},
		health.Check{Name: "redis", Checker: redis},
		health.Check{Name: "docstore", Checker: store},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Accounts:   accountRepo,
		Materials:  materialSvc,
	})

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
			BypassFunc: func(r *http.Request) bool {
				return strings.HasPrefix(r.URL.Path, "/v1/auth/session/stream")
			},
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", provider.JWKSHandler())

	tokenOnly := middleware.Authenticator(provider)
	withAccount := middleware.ResolveAccount(accountSvc)
	authenticated := func(next http.Handler) http.Handler {
		return tokenOnly(withAccount(next))
	}

	loginLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerMinute(10, 5),
		KeyFunc:  middleware.KeyByIPAndEndpoint,
		FailOpen: true,
	})
	streamLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerMinute(6, 3),
		KeyFunc:  middleware.KeyByUser,
		FailOpen: true,
	})

	adminOnly := middleware.RequireAdmin
	teacherOnly := middleware.RequireRole(account.RoleTeacher)
	studentOnly := middleware.RequireRole(account.RoleStudent)
	entitled := middleware.RequireEntitlement(subscriptionSvc)

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, auth.Routes{
			Authenticator: tokenOnly,
			Account:       withAccount,
			Login:         loginLimiter.Handler,
			Stream:        streamLimiter.Handler,
		})

		accountHandler.RegisterAdminRoutes(r, authenticated, adminOnly)
		subscriptionHandler.RegisterAdminRoutes(r, authenticated, adminOnly)
		adminHandler.RegisterRoutes(r, authenticated, adminOnly)

		materialHandler.RegisterTeacherRoutes(r, authenticated, teacherOnly)
		materialHandler.RegisterStudentRoutes(r, authenticated, studentOnly, entitled)
		subscriptionHandler.RegisterStudentRoutes(r, authenticated, studentOnly)
	})

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

// reportMigrationStatus logs the schema version. A failed read is only a
// warning since the migrations themselves already succeeded.
func reportMigrationStatus(ctx context.Context, db *sql.DB, logger *slog.Logger) {
	version, err := core.MigrationStatus(ctx, db)
	if err != nil {
		logger.WarnContext(ctx, "failed to read migration status", "error", err)
		return
	}
	logger.InfoContext(ctx, "database migrated", "version", version)
}

func passwordPolicy(cfg config.IdentityConfig) identity.Policy {
	return identity.Policy{
		MinLength: cfg.MinPasswordLength,
		MaxLength: cfg.MaxPasswordLength,
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
