// Package jobs provides scheduled background tasks for the lab order service.
//
// Jobs are built on github.com/robfig/cron/v3 with the seconds field enabled.
//
// # Available Jobs
//
// AutoCancelJob runs the end of day sweep as the system actor. On every tick it
// asks the auto-cancel handler to cancel today's orders that have no completed
// item; before the configured cutoff the handler does nothing.
//
// # Usage
//
//	jobManager := jobs.NewJobManager(autoCancelHandler, jobs.Config{
//		AutoCancelSchedule: "0 * * * * *",
//		Location:           location,
//	}, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Sweep failures are logged and the job keeps its schedule. Per-order failures
// are counted by the handler and reported in the sweep summary.
package jobs
