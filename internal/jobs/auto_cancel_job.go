package jobs

import (
	"context"
	"log/slog"
	"time"

	"labtrack/internal/core/application/usecases/commands"
	"labtrack/internal/core/domain/model/kernel"

	"github.com/robfig/cron/v3"
)

// DefaultAutoCancelSchedule fires every minute. The handler itself decides
// whether the cutoff has passed, so a frequent schedule is safe.
const DefaultAutoCancelSchedule = "0 * * * * *"

type AutoCancelOrdersHandler interface {
	Handle(ctx context.Context, cmd commands.AutoCancelOrdersCommand) (commands.AutoCancelResult, error)
}

// AutoCancelJob runs the end of day sweep on a cron schedule as the system actor.
type AutoCancelJob struct {
	handler  AutoCancelOrdersHandler
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewAutoCancelJob creates the sweep job. An empty schedule falls back to
// DefaultAutoCancelSchedule; schedules use the six field format with seconds.
func NewAutoCancelJob(
	handler AutoCancelOrdersHandler,
	schedule string,
	location *time.Location,
	logger *slog.Logger,
) *AutoCancelJob {
	if schedule == "" {
		schedule = DefaultAutoCancelSchedule
	}
	if location == nil {
		location = time.Local
	}
	return &AutoCancelJob{
		handler:  handler,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(location)),
		logger:   logger.With("component", "auto_cancel_job"),
	}
}

// Start registers the sweep and starts the scheduler.
func (j *AutoCancelJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		j.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Auto-cancel job started", "schedule", j.schedule)
	return nil
}

// RunOnce executes a single sweep and logs its outcome.
func (j *AutoCancelJob) RunOnce(ctx context.Context) {
	cmd, err := commands.NewAutoCancelOrdersCommand(time.Time{}, kernel.SystemActor())
	if err != nil {
		j.logger.ErrorContext(ctx, "Auto-cancel command rejected", "error", err)
		return
	}

	result, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Auto-cancel job failed", "error", err)
		return
	}

	if len(result.CancelledOrderIDs) > 0 || result.Failed > 0 {
		j.logger.InfoContext(ctx, "Auto-cancel sweep finished",
			"check_time", result.CheckTime,
			"cancelled", len(result.CancelledOrderIDs),
			"failed", result.Failed)
	}
}

// Stop stops the scheduler and waits for a running sweep to return.
func (j *AutoCancelJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Auto-cancel job stopped")
}
