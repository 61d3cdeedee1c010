package jobs

import (
	"fmt"
	"log/slog"
	"time"
)

// Config selects the schedules of the background jobs.
type Config struct {
	AutoCancelSchedule string
	Location           *time.Location
}

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	autoCancelJob *AutoCancelJob
}

func NewJobManager(autoCancelHandler AutoCancelOrdersHandler, cfg Config, logger *slog.Logger) *JobManager {
	return &JobManager{
		autoCancelJob: NewAutoCancelJob(autoCancelHandler, cfg.AutoCancelSchedule, cfg.Location, logger),
	}
}

// StartAll starts all scheduled jobs.
func (jm *JobManager) StartAll() error {
	if err := jm.autoCancelJob.Start(); err != nil {
		return fmt.Errorf("failed to start auto-cancel job: %w", err)
	}
	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.autoCancelJob.Stop()
}
