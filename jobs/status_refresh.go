package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/norulespvp/portal/internal/jobs"
	"github.com/norulespvp/portal/internal/status"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// StatusRefreshJob keeps the cached game server status warm so the public
// widget never waits on the upstream list API.
type StatusRefreshJob struct {
	Status  *status.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewStatusRefreshJob wires dependencies for the refresh handler.
func NewStatusRefreshJob(statusSvc *status.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *StatusRefreshJob {
	return &StatusRefreshJob{Status: statusSvc, Logger: logger, Metrics: metrics}
}

// Handle processes status refresh tasks.
func (j *StatusRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Status == nil {
		return errors.New("status refresh: handler not configured")
	}
	var payload StatusRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskStatusRefresh)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	refreshCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := j.Status.Refresh(refreshCtx); err != nil {
		resultErr = err
		j.logger().Warn("refresh server status", slog.String("server_code", payload.ServerCode), slog.Any("error", err))
		return resultErr
	}
	return resultErr
}

func (j *StatusRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStatusRefresh))
	}
	return slog.Default().With(slog.String("job", TaskStatusRefresh))
}

func (j *StatusRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
