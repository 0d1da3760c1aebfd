package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStatusRefresh re-fetches the game server status into the cache.
	TaskStatusRefresh = "status:refresh"
	// TaskAuditTrim removes audit log entries past the retention window.
	TaskAuditTrim = "audit:trim"
)

// StatusRefreshPayload selects the server whose status should be refreshed.
type StatusRefreshPayload struct {
	ServerCode string `json:"server_code"`
}

// NewStatusRefreshTask constructs an Asynq task for a status refresh.
func NewStatusRefreshTask(payload StatusRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatusRefresh, data), nil
}

// AuditTrimPayload bounds the audit log retention sweep.
type AuditTrimPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditTrimTask constructs an Asynq task for the audit trim sweep.
func NewAuditTrimTask(payload AuditTrimPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditTrim, data), nil
}
