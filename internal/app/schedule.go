package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// TurnoverSchedule runs the month turnover a few minutes after midnight.
const TurnoverSchedule = "5 0 * * *"

// TurnoverJob runs the month turnover of a long-lived App on a cron
// schedule, so a process started in one month rolls over into the next.
type TurnoverJob struct {
	app      *App
	schedule string
	cron     *cron.Cron
}

// NewTurnoverJob schedules a.Turnover. The schedule is read in the app
// clock's location.
func NewTurnoverJob(a *App, schedule string) (*TurnoverJob, error) {
	j := &TurnoverJob{
		app:      a,
		schedule: schedule,
		cron:     cron.New(cron.WithLocation(a.clock.Now().Location())),
	}
	if _, err := j.cron.AddFunc(schedule, func() { j.runOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid turnover schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *TurnoverJob) runOnce(ctx context.Context) {
	res, err := j.app.Turnover(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Scheduled turnover failed", "error", err)
		return
	}
	if res.Advanced {
		slog.InfoContext(ctx, "Scheduled turnover advanced the ledger", "settled", res.Settled())
	}
}

// Run starts the schedule and blocks until ctx is cancelled.
func (j *TurnoverJob) Run(ctx context.Context) error {
	j.cron.Start()
	slog.InfoContext(ctx, "Turnover schedule started", "schedule", j.schedule)

	<-ctx.Done()

	<-j.cron.Stop().Done()
	slog.Info("Turnover schedule stopped")
	return nil
}
