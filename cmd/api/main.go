// Package main is the entrypoint for the Prism API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/prismai/prismai/internal/cache"
	"github.com/prismai/prismai/internal/config"
	"github.com/prismai/prismai/internal/generation"
	"github.com/prismai/prismai/internal/handler"
	"github.com/prismai/prismai/internal/metrics"
	"github.com/prismai/prismai/internal/middleware"
	"github.com/prismai/prismai/internal/model"
	"github.com/prismai/prismai/internal/repository"
	"github.com/prismai/prismai/internal/server"
	"github.com/prismai/prismai/internal/storage"
	"github.com/prismai/prismai/internal/token"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	uploader, err := storage.NewUploader(storage.Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		PublicBaseURL: cfg.S3PublicBaseURL,
		UsePathStyle:  cfg.S3UsePathStyle,
	})
	if err != nil {
		logger.Error("failed to configure object storage", "error", err)
		os.Exit(1)
	}

	tokenMaker := token.NewMaker(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	metricsRecorder := metrics.NewInMemory()

	llm := generation.NewLLMClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, logger)
	images := generation.NewImageClient(cfg.ImageAPIKey, cfg.ImageBaseURL, cfg.ImageModel, logger)
	generator := generation.NewService(llm, images, uploader, logger)

	authHandler := handler.NewAuthHandler(repo, repo, tokenMaker, metricsRecorder, logger)
	generateHandler := handler.NewGenerateHandler(generator, repo, metricsRecorder, logger)
	adminHandler := handler.NewAdminHandler(repo, logger)
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)

	r := setupRouter(routerDeps{
		cfg:      cfg,
		recorder: metricsRecorder,
		logger:   logger,
		repo:     repo,
		cache:    cacheClient,
		tokens:   tokenMaker,
		auth:     authHandler,
		generate: generateHandler,
		admin:    adminHandler,
		health:   healthHandler,
		metrics:  metricsHandler,
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	cfg      *config.Config
	recorder metrics.Recorder
	logger   *slog.Logger
	repo     *repository.Repository
	cache    *cache.Cache
	tokens   *token.Maker
	auth     *handler.AuthHandler
	generate *handler.GenerateHandler
	admin    *handler.AdminHandler
	health   *handler.HealthHandler
	metrics  *handler.MetricsHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.DefaultSecurityConfig()))
	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Liveness, readiness, and metrics (no auth required)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/health", d.health.Healthz) // legacy alias
	r.Get("/metrics", d.metrics.Metrics)

	r.Get("/", handler.Home)

	authCfg := middleware.AuthConfig{
		Logger: d.logger,
		Tokens: d.tokens,
		Users:  d.repo,
	}
	quotaCfg := middleware.QuotaConfig{
		Logger:  d.logger,
		Usage:   d.repo,
		Metrics: d.recorder,
	}
	loginLimitCfg := middleware.RateLimitConfig{
		Logger:  d.logger,
		Cache:   d.cache,
		Enabled: d.cfg.LoginRateLimitEnabled,
		RPM:     d.cfg.LoginRateLimitRPM,
		Burst:   d.cfg.LoginRateLimitBurst,
	}

	// Public auth endpoints, with brute-force limiting on credential paths
	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.RateLimitLogin(loginLimitCfg)).Post("/register", d.auth.Register)
		r.With(middleware.RateLimitLogin(loginLimitCfg)).Post("/login", d.auth.Login)
		r.Post("/refresh", d.auth.Refresh)
		r.With(middleware.Auth(authCfg)).Get("/me", d.auth.Me)
	})

	// Gated generation endpoints: authenticate, then admit against the
	// caller's daily quota for that endpoint
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))

		r.With(middleware.Quota(model.EndpointBlog, quotaCfg)).
			Post("/generate-blog", d.generate.Blog)
		r.With(middleware.Quota(model.EndpointVideoScript, quotaCfg)).
			Post("/generate-video-script", d.generate.VideoScript)
		r.With(middleware.Quota(model.EndpointImage, quotaCfg)).
			Post("/generate-image", d.generate.Image)
	})

	// Admin endpoints
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RequireAdmin())

		r.Get("/users", d.admin.ListUsers)
		r.Get("/stats", d.admin.Stats)
		r.Put("/users/{id}", d.admin.UpdateUser)
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
