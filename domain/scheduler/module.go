package scheduler

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/emergent-company/lims-pipeline/domain/ingest"
	"github.com/emergent-company/lims-pipeline/internal/config"
	"github.com/emergent-company/lims-pipeline/pkg/logger"
)

// Module provides periodic ingestion.
var Module = fx.Module("scheduler",
	fx.Provide(
		NewSchedulerFromConfig,
	),
	fx.Invoke(
		RegisterTasks,
		RegisterSchedulerLifecycle,
	),
)

// NewSchedulerFromConfig builds the scheduler with the configured timeout.
func NewSchedulerFromConfig(cfg *config.Config, log *slog.Logger) *Scheduler {
	return NewScheduler(log, cfg.Schedule.Timeout)
}

// TaskParams contains dependencies for creating scheduled tasks
type TaskParams struct {
	fx.In
	Scheduler *Scheduler
	Service   *ingest.Service
	Log       *slog.Logger
	Cfg       *config.Config
}

// RegisterTasks registers all scheduled tasks
func RegisterTasks(p TaskParams) error {
	log := p.Log.With(logger.Scope("scheduler"))
	if !p.Cfg.Schedule.Enabled {
		log.Info("scheduler disabled, skipping task registration")
		return nil
	}

	task := NewIngestTask(p.Service, p.Log)
	if err := p.Scheduler.AddCronTask(IngestTaskName, p.Cfg.Schedule.Cron, task.Run); err != nil {
		return err
	}

	log.Info("registered scheduled tasks", slog.Any("tasks", p.Scheduler.ListTasks()))
	return nil
}

// RegisterSchedulerLifecycle registers the scheduler with fx lifecycle
func RegisterSchedulerLifecycle(lc fx.Lifecycle, scheduler *Scheduler, cfg *config.Config) {
	if !cfg.Schedule.Enabled {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return scheduler.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return scheduler.Stop(ctx)
		},
	})
}
