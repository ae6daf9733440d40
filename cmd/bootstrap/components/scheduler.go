package components

import (
	"context"
	"log/slog"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/repository"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/jobs"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/clock"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/config"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

var SchedulerModule = fx.Module("scheduler",
	fx.Provide(
		jobs.NewHandlers,
		func(repo *repository.JobRepository) jobs.JobStore { return repo },
		func(store jobs.JobStore, handlers *jobs.Handlers, cfg config.SchedulerConfig, clk clock.Clock) *jobs.Scheduler {
			return jobs.NewScheduler(store, handlers.Registry(), cfg, clk)
		},
	),
	fx.Invoke(runScheduler),
)

func runScheduler(lc fx.Lifecycle, scheduler *jobs.Scheduler, repo *repository.JobRepository, cfg config.ReservationConfig, clk clock.Clock) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := seedCleanupJob(ctx, repo, cfg, clk); err != nil {
				return err
			}
			scheduler.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
}

// seedCleanupJob installs the recurring sweep once per deployment; later
// replicas find the existing row and skip.
func seedCleanupJob(ctx context.Context, repo *repository.JobRepository, cfg config.ReservationConfig, clk clock.Clock) error {
	exists, err := repo.ExistsByName(ctx, shared.JobResourceCleanup)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	payload, err := shared.MarshalJobPayload(shared.ResourceCleanupPayload{
		RetentionHours: int(cfg.CleanupRetention.Hours()),
	})
	if err != nil {
		return err
	}

	interval := cfg.CleanupInterval
	now := clk.Now()
	job := &shared.JobRecord{
		ID:         uuid.New(),
		Name:       shared.JobResourceCleanup,
		Payload:    payload,
		RunAt:      now.Add(interval),
		RecurEvery: &interval,
		Status:     shared.JobQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := repo.Enqueue(ctx, job); err != nil {
		return err
	}
	slog.Info("recurring cleanup job installed", "interval", interval)
	return nil
}
