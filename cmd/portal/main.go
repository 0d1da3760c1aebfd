package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/norulespvp/portal/internal/app"
	"github.com/norulespvp/portal/internal/auth"
	"github.com/norulespvp/portal/internal/identity"
	"github.com/norulespvp/portal/internal/moderation"
	"github.com/norulespvp/portal/internal/observability"
	"github.com/norulespvp/portal/internal/platform/cache"
	"github.com/norulespvp/portal/internal/platform/db"
	"github.com/norulespvp/portal/internal/profiles"
	"github.com/norulespvp/portal/internal/rbac"
	"github.com/norulespvp/portal/internal/roles"
	"github.com/norulespvp/portal/internal/shared"
	"github.com/norulespvp/portal/internal/status"
	syncsvc "github.com/norulespvp/portal/internal/sync"
	"github.com/norulespvp/portal/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "portal_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	auditLogger := shared.NewAuditLogger(dbpool)

	verifier := identity.NewHTTPVerifier(cfg.AuthUserInfoURL, cfg.AuthAPIKey, http.DefaultClient)
	oauthConfig := identity.NewOAuthConfig(cfg.DiscordClientID, cfg.DiscordRedirectURL)

	bridge := rbac.NewBridge(bridgeBindings(cfg, logger))
	rbacMiddleware := rbac.Middleware{Logger: logger}

	profileRepo := profiles.NewRepository(dbpool)
	roleRepo := roles.NewRepository(dbpool)
	roleService := roles.NewService(roleRepo, auditLogger, logger)

	syncService := syncsvc.NewService(verifier, roleRepo, profileRepo, bridge, syncsvc.RoleSource(cfg.RoleSource), logger)

	metrics := observability.NewMetrics()

	authHandler := auth.NewHandler(logger, syncService, oauthConfig, profileRepo, sessionManager, csrfManager)
	syncHandler := syncsvc.NewHandler(logger, syncService, metrics)
	rolesHandler := roles.NewHandler(logger, roleService, rbacMiddleware)

	gameServer := moderation.NewHTTPGameServer(cfg.GameServerURL, cfg.GameServerAPIKey, http.DefaultClient)
	moderationService := moderation.NewService(gameServer, auditLogger, logger)
	moderationHandler := moderation.NewHandler(logger, moderationService, auditLogger, rbacMiddleware)

	statusClient := status.NewClient(cfg.FiveMListAPI, cfg.FiveMServerCode, http.DefaultClient)
	statusService := status.NewService(statusClient, redisClient, cfg.StatusCacheTTL, logger)
	statusHandler := status.NewHandler(statusService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		SyncHandler:       syncHandler,
		RolesHandler:      rolesHandler,
		ModerationHandler: moderationHandler,
		StatusHandler:     statusHandler,
		JobsHandler:       jobsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// bridgeBindings resolves the configured group-id bindings, falling back to
// the compiled defaults when none are set. Bindings naming an unknown role
// are skipped with a warning.
func bridgeBindings(cfg *app.Config, logger *slog.Logger) map[string]rbac.Role {
	if len(cfg.DiscordRoleBindings) == 0 {
		return rbac.DefaultGroupBindings
	}
	bindings := make(map[string]rbac.Role, len(cfg.DiscordRoleBindings))
	for groupID, name := range cfg.DiscordRoleBindings {
		role, ok := rbac.ParseRole(name)
		if !ok {
			logger.Warn("skipping role binding with unknown role",
				slog.String("group_id", groupID),
				slog.String("role", name))
			continue
		}
		bindings[groupID] = role
	}
	return bindings
}
