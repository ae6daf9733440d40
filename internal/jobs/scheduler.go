package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/clock"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/config"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"

	"github.com/google/uuid"
)

// JobStore is the runner-side persistence surface. The claim is a single
// UPDATE guarded by a lock token with expiry: a crashed runner's claims
// become reclaimable once locked_until passes, so handlers must tolerate
// a second execution.
type JobStore interface {
	ClaimDue(ctx context.Context, now time.Time, lockToken string, lockTTL time.Duration, limit int) ([]*shared.JobRecord, error)
	Complete(ctx context.Context, job *shared.JobRecord, lockToken string, now time.Time) error
	Reschedule(ctx context.Context, id uuid.UUID, lockToken string, runAt time.Time, failCount int32, lastError string, now time.Time) error
	DeadLetter(ctx context.Context, id uuid.UUID, lockToken string, reason string, now time.Time) error
}

type Handler func(ctx context.Context, payload any) error

// Scheduler polls the jobs table and drives claimed jobs through their
// handlers. Multiple replicas run their own scheduler against the shared
// table; the claim UPDATE is the only mutual exclusion.
type Scheduler struct {
	store    JobStore
	handlers map[shared.JobName]Handler
	cfg      config.SchedulerConfig
	clock    clock.Clock

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(store JobStore, handlers map[shared.JobName]Handler, cfg config.SchedulerConfig, clk clock.Clock) *Scheduler {
	return &Scheduler{
		store:    store,
		handlers: handlers,
		cfg:      cfg,
		clock:    clk,
	}
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop halts polling and waits for in-flight handlers. Jobs claimed but
// not finished keep their locks and are reclaimed after expiry.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	slog.Info("job scheduler started",
		"poll_interval", s.cfg.PollInterval,
		"batch_size", s.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("job scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.clock.Now()
	lockToken := uuid.NewString()

	batch, err := s.store.ClaimDue(ctx, now, lockToken, s.cfg.LockTTL, int(s.cfg.BatchSize))
	if err != nil {
		slog.Error("failed to claim due jobs", "error", err.Error())
		return
	}

	for _, job := range batch {
		s.execute(ctx, job, lockToken)
	}
}

func (s *Scheduler) execute(ctx context.Context, job *shared.JobRecord, lockToken string) {
	log := slog.With("job_id", job.ID, "job_name", job.Name, "fail_count", job.FailCount)

	payload, err := shared.DecodeJobPayload(job.Name, job.Payload)
	if err != nil {
		// A payload that no longer matches its schema will never succeed;
		// retrying would only burn the retry budget.
		log.Error("job payload rejected", "error", err.Error())
		s.deadLetter(ctx, job, lockToken, "payload schema mismatch: "+err.Error())
		return
	}

	handler, ok := s.handlers[job.Name]
	if !ok {
		log.Error("no handler registered for job")
		s.deadLetter(ctx, job, lockToken, "no handler registered")
		return
	}

	if err := s.runHandler(ctx, handler, payload); err != nil {
		s.handleFailure(ctx, job, lockToken, err, log)
		return
	}

	if err := s.store.Complete(ctx, job, lockToken, s.clock.Now()); err != nil {
		log.Error("failed to complete job", "error", err.Error())
	}
}

func (s *Scheduler) runHandler(ctx context.Context, handler Handler, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprint("job handler panicked: ", r))
		}
	}()
	return handler(ctx, payload)
}

func (s *Scheduler) handleFailure(ctx context.Context, job *shared.JobRecord, lockToken string, handlerErr error, log *slog.Logger) {
	failCount := job.FailCount + 1
	now := s.clock.Now()

	if failCount > int32(s.cfg.MaxRetries) {
		log.Error("job exhausted its retries",
			"attempts", failCount,
			"error", handlerErr.Error())
		s.deadLetter(ctx, job, lockToken, handlerErr.Error())
		return
	}

	backoff := time.Duration(1<<failCount) * s.cfg.BackoffBase
	runAt := now.Add(backoff)

	log.Warn("job failed, rescheduling",
		"retry_at", runAt,
		"backoff", backoff,
		"error", handlerErr.Error())

	if err := s.store.Reschedule(ctx, job.ID, lockToken, runAt, failCount, handlerErr.Error(), now); err != nil {
		log.Error("failed to reschedule job", "error", err.Error())
	}
}

func (s *Scheduler) deadLetter(ctx context.Context, job *shared.JobRecord, lockToken, reason string) {
	if err := s.store.DeadLetter(ctx, job.ID, lockToken, reason, s.clock.Now()); err != nil {
		slog.Error("failed to dead-letter job",
			"job_id", job.ID,
			"job_name", job.Name,
			"error", err.Error())
	}
}
