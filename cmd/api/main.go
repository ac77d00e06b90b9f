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

	"github.com/PYMELOGI-API-s/Api-Usuario/internal/admin"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/auth"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/config"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/core"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/health"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/middleware"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/server"
	"github.com/PYMELOGI-API-s/Api-Usuario/internal/user"
	"github.com/PYMELOGI-API-s/Api-Usuario/migrations"
)

const (
	sessionJanitorInterval = time.Hour
	metricsNamespace       = "api_usuario"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	migrateOnly := flag.Bool("migrate", false, "apply migrations and exit")
	flag.Parse()

	if err := run(*configPath, *migrateOnly); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string, migrateOnly bool) error {
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
	core.ExposeInternalErrors(!cfg.IsProduction())

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"db_driver", cfg.Database.Driver,
	)

	hasher, err := core.NewPasswordHasher(cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "HS256",
		"access_ttl", jwtManager.AccessTTL(),
		"refresh_ttl", jwtManager.RefreshTTL(),
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		return err
	}
	if cfg.Otel.Enabled {
		logger.Info("OpenTelemetry tracer initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		_ = telemetry.Shutdown(context.Background()) //nolint:errcheck // exiting on database failure
		return err
	}
	logger.Info("database connected",
		"driver", db.Dialect.Name(),
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if migrateOnly || cfg.Database.MigrateOnStart {
		if err := core.Migrate(ctx, db, migrations.FS); err != nil {
			_ = db.Close()                               //nolint:errcheck // exiting on migration failure
			_ = telemetry.Shutdown(context.Background()) //nolint:errcheck // exiting on migration failure
			return err
		}
		logger.Info("migrations applied", "dialect", db.Dialect.GooseDialect())

		if migrateOnly {
			_ = telemetry.Shutdown(context.Background()) //nolint:errcheck // migrate-only run
			return db.Close()
		}
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()                               //nolint:errcheck // exiting on redis failure
		_ = telemetry.Shutdown(context.Background()) //nolint:errcheck // exiting on redis failure
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	userRepo := user.NewRepository(db.DB, db.Dialect)
	userSvc := user.NewService(userRepo, hasher)
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB, db)
	authSvc := auth.NewService(authRepo, jwtManager, userSvc, hasher, redis, logger)
	authHandler := auth.NewHandler(authSvc)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Users:      userSvc,
		DBStats:    db.Stats,
		DBPing:     db.Ping,
		RedisStats: redis.PoolStats,
		RedisPing:  redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
		Version:       cfg.App.Version,
	})

	router := srv.Router()

	var metrics *middleware.Metrics
	if cfg.Metrics.Enabled {
		metrics = middleware.NewMetrics(metricsNamespace)
	}

	if cfg.Server.TrustProxy {
		router.Use(middleware.TrustProxy)
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Tracing(telemetry.Tracer))
	if metrics != nil {
		router.Use(metrics.Handler)
	}
	router.Use(middleware.Deadline(cfg.Server.RequestTimeout))
	router.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.Window(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen:   true,
			BypassFunc: isInfraPath(cfg.Metrics.Path),
			Logger:     logger,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.Window(
			cfg.RateLimit.AuthRequests,
			0,
			cfg.RateLimit.AuthWindow,
		),
		KeyPrefix: "auth:",
		FailOpen:  true,
		Logger:    logger,
	})

	deps := routeDeps{
		Auth:          authHandler,
		Users:         userHandler,
		Admin:         adminHandler,
		Health:        healthHandler,
		Index:         srv.Index,
		Authenticator: middleware.Authenticator(authSvc, logger),
		AuthLimiter:   authLimiter.Handler,
		MetricsPath:   cfg.Metrics.Path,
	}
	if metrics != nil {
		deps.Metrics = metrics.Exposition()
	}
	mountRoutes(router, deps)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go authSvc.RunSessionJanitor(janitorCtx, sessionJanitorInterval)

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

	stopJanitor()

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+cfg.Server.DrainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, cfg.Server.DrainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
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

// isInfraPath skips rate limiting for health checks and metric scrapes.
func isInfraPath(metricsPath string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		switch r.URL.Path {
		case "/healthz", "/livez", "/readyz", metricsPath:
			return true
		default:
			return false
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
