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

	"github.com/carterperez-dev/webuzz/internal/admin"
	"github.com/carterperez-dev/webuzz/internal/api"
	"github.com/carterperez-dev/webuzz/internal/auth"
	"github.com/carterperez-dev/webuzz/internal/comment"
	"github.com/carterperez-dev/webuzz/internal/config"
	"github.com/carterperez-dev/webuzz/internal/core"
	"github.com/carterperez-dev/webuzz/internal/follow"
	"github.com/carterperez-dev/webuzz/internal/health"
	"github.com/carterperez-dev/webuzz/internal/mail"
	"github.com/carterperez-dev/webuzz/internal/middleware"
	"github.com/carterperez-dev/webuzz/internal/post"
	"github.com/carterperez-dev/webuzz/internal/role"
	"github.com/carterperez-dev/webuzz/internal/server"
	"github.com/carterperez-dev/webuzz/internal/user"
	"github.com/carterperez-dev/webuzz/internal/web"
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

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	dispatcher, err := newDispatcher(cfg.Mail, logger)
	if err != nil {
		return err
	}

	render, err := web.NewRenderer(cfg.App.Name)
	if err != nil {
		return err
	}
	gate := middleware.NewGate(render, "/auth/login", "/auth/unconfirmed")

	conn := db.Conn()
	roleSvc := role.NewService(role.NewRepository(conn))

	userSvc := user.NewService(user.NewRepository(conn), roleSvc, cfg.App.AdminEmail)
	postSvc := post.NewService(post.NewRepository(conn))
	commentSvc := comment.NewService(comment.NewRepository(conn), postSvc)
	followSvc := follow.NewService(follow.NewRepository(conn))

	authSvc := auth.NewService(
		jwtManager,
		userSvc,
		auth.NewRedisBlacklist(redis.Client),
		dispatcher,
		cfg.App.Name,
	)

	authHandler := auth.NewHandler(authSvc, render, gate, auth.HandlerConfig{
		PasswordMinLength: cfg.Blog.PasswordMinLength,
		BaseURL:           cfg.App.BaseURL,
		SecureCookies:     cfg.IsProduction(),
	})
	postHandler := post.NewHandler(
		postSvc, commentSvc, render, gate,
		cfg.Blog.PostsPerPage, cfg.Blog.CommentsPerPage,
	)
	commentHandler := comment.NewHandler(commentSvc, render, gate, cfg.Blog.CommentsPerPage)
	userHandler := user.NewHandler(userSvc, postSvc, followSvc, render, gate, cfg.Blog.PostsPerPage)
	followHandler := follow.NewHandler(followSvc, userSvc, render, gate, cfg.Blog.FollowersPerPage)
	apiHandler := api.NewHandler(userSvc, postSvc, render, cfg.Blog.PostsPerPage, cfg.App.BaseURL)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:       db.Stats,
		RedisStats:    redis.PoolStats,
		DBPing:        db.Ping,
		RedisPing:     redis.Ping,
		CountUsers:    userSvc.Count,
		CountPosts:    postSvc.Count,
		CountComments: commentSvc.Count,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(render))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Name: "global",
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			Responder: render,
			FailOpen:  true,
		}).Handler,
	)
	router.Use(middleware.Session(authSvc))

	healthHandler.RegisterRoutes(router)

	router.Group(func(r chi.Router) {
		r.Use(gate.RequireConfirmed("/auth", api.Prefix, "/healthz", "/livez", "/readyz"))

		authHandler.RegisterRoutes(r,
			middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
				Name:       "auth",
				Limit:      middleware.PerMinute(cfg.RateLimit.Auth, cfg.RateLimit.Auth),
				KeyFunc:    middleware.KeyByUserAndEndpoint,
				BypassFunc: middleware.PostsOnly,
				Responder:  render,
				FailOpen:   true,
			}).Handler,
		)
		postHandler.RegisterRoutes(r)
		commentHandler.RegisterRoutes(r)
		userHandler.RegisterRoutes(r)
		followHandler.RegisterRoutes(r)
		apiHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r, gate.RequireAdmin)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Error(w, r, http.StatusNotFound)
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

	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error("mail dispatcher close error", "error", err)
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

// newDispatcher logs outgoing mail instead of sending it when no SMTP host
// is configured.
func newDispatcher(cfg config.MailConfig, logger *slog.Logger) (*mail.Dispatcher, error) {
	var sender mail.Sender
	if cfg.Host == "" {
		logger.Warn("mail.host not set, outgoing mail will only be logged")
		sender = mail.NewLogSender(logger)
	} else {
		smtp, err := mail.NewSMTPSender(cfg)
		if err != nil {
			return nil, err
		}
		sender = smtp
	}

	return mail.NewDispatcher(sender, cfg, logger)
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
