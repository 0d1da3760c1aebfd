package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/norulespvp/portal/internal/app"
	"github.com/norulespvp/portal/internal/platform/cache"
	"github.com/norulespvp/portal/internal/platform/db"
	"github.com/norulespvp/portal/internal/status"
	"github.com/norulespvp/portal/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	statusClient := status.NewClient(cfg.FiveMListAPI, cfg.FiveMServerCode, http.DefaultClient)
	statusService := status.NewService(statusClient, redisClient, cfg.StatusCacheTTL, logger)

	statusJob := jobs.NewStatusRefreshJob(statusService, logger, nil)
	auditJob := jobs.NewAuditTrimJob(pool, logger, nil)

	statusTask, err := jobs.NewStatusRefreshTask(jobs.StatusRefreshPayload{ServerCode: cfg.FiveMServerCode})
	if err != nil {
		logger.Error("build status refresh task", slog.Any("error", err))
		os.Exit(1)
	}
	auditTask, err := jobs.NewAuditTrimTask(jobs.AuditTrimPayload{})
	if err != nil {
		logger.Error("build audit trim task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStatusRefresh, Handler: statusJob.Handle},
			{Type: jobs.TaskAuditTrim, Handler: auditJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "@every 30s", Task: statusTask},
			{Spec: "30 3 * * *", Task: auditTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
