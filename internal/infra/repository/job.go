package repository

import (
	"context"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/db"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/pgconv"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const enqueueJobSQL = `
INSERT INTO scheduled_jobs (
	id, name, payload, run_at, recur_every_sec,
	status, fail_count, dead_letter,
	created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5,
	'queued', 0, false,
	$6, $6
)`

const cancelPendingJobsSQL = `
DELETE FROM scheduled_jobs
WHERE name = $1
  AND status = 'queued'
  AND lock_token IS NULL
  AND dead_letter = false
  AND payload->>'reservation_id' = $2`

// Claiming marks a batch of due rows with this runner's lock token. An
// expired lock (locked_until in the past) counts as unclaimed, so jobs
// held by a crashed runner become claimable again. SKIP LOCKED keeps
// concurrent runners from contending on the same rows.
const existsJobByNameSQL = `
SELECT EXISTS (
	SELECT 1 FROM scheduled_jobs
	WHERE name = $1 AND dead_letter = false
)`

const claimDueJobsSQL = `
UPDATE scheduled_jobs SET
	status = 'running',
	lock_token = $2,
	locked_until = $3,
	updated_at = $1
WHERE id IN (
	SELECT id FROM scheduled_jobs
	WHERE dead_letter = false
	  AND run_at <= $1
	  AND (lock_token IS NULL OR locked_until <= $1)
	ORDER BY run_at
	LIMIT $4
	FOR UPDATE SKIP LOCKED
)
RETURNING id, name, payload, run_at, recur_every_sec,
	lock_token, locked_until, fail_count, status,
	dead_letter, dead_letter_reason, dead_lettered_at, last_error,
	created_at, updated_at`

const deleteClaimedJobSQL = `
DELETE FROM scheduled_jobs
WHERE id = $1 AND lock_token = $2`

const advanceRecurringJobSQL = `
UPDATE scheduled_jobs SET
	status = 'queued',
	run_at = $3,
	lock_token = NULL,
	locked_until = NULL,
	fail_count = 0,
	last_error = NULL,
	updated_at = $4
WHERE id = $1 AND lock_token = $2`

const rescheduleJobSQL = `
UPDATE scheduled_jobs SET
	status = 'queued',
	run_at = $3,
	lock_token = NULL,
	locked_until = NULL,
	fail_count = $4,
	last_error = $5,
	updated_at = $6
WHERE id = $1 AND lock_token = $2`

const deadLetterJobSQL = `
UPDATE scheduled_jobs SET
	status = 'queued',
	dead_letter = true,
	dead_letter_reason = $3,
	dead_lettered_at = $4,
	lock_token = NULL,
	locked_until = NULL,
	updated_at = $4
WHERE id = $1 AND lock_token = $2`

type JobRepository struct {
	db db.DBTX
}

func NewJobRepository(dbtx db.DBTX) *JobRepository {
	return &JobRepository{db: dbtx}
}

func (r *JobRepository) Enqueue(ctx context.Context, job *shared.JobRecord) error {
	_, err := r.db.Exec(ctx, enqueueJobSQL,
		pgconv.UUIDToPgtype(job.ID),
		string(job.Name),
		[]byte(job.Payload),
		pgconv.TimeToPgtype(job.RunAt),
		durationPtrToSec(job.RecurEvery),
		pgconv.TimeToPgtype(job.CreatedAt),
	)
	if err != nil {
		return wrapWriteErr("failed to enqueue job", err)
	}
	return nil
}

func (r *JobRepository) CancelPending(ctx context.Context, name shared.JobName, reservationID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, cancelPendingJobsSQL, string(name), reservationID.String())
	if err != nil {
		return 0, wrapWriteErr("failed to cancel pending jobs", err)
	}
	return tag.RowsAffected(), nil
}

// ExistsByName reports whether any live job with the given name exists;
// startup uses it to install recurring jobs exactly once.
func (r *JobRepository) ExistsByName(ctx context.Context, name shared.JobName) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, existsJobByNameSQL, string(name)).Scan(&exists); err != nil {
		return false, wrapWriteErr("failed to check job existence", err)
	}
	return exists, nil
}

// ClaimDue is the scheduler runner's entry point; it is not part of the
// transactional repository surface the usecases see.
func (r *JobRepository) ClaimDue(ctx context.Context, now time.Time, lockToken string, lockTTL time.Duration, limit int) ([]*shared.JobRecord, error) {
	rows, err := r.db.Query(ctx, claimDueJobsSQL,
		pgconv.TimeToPgtype(now),
		lockToken,
		pgconv.TimeToPgtype(now.Add(lockTTL)),
		limit,
	)
	if err != nil {
		return nil, wrapWriteErr("failed to claim due jobs", err)
	}
	defer rows.Close()

	var jobs []*shared.JobRecord
	for rows.Next() {
		job, err := scanJobRow(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan job row", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read claimed jobs", err)
	}
	return jobs, nil
}

// Complete removes a one-shot job, or re-queues a recurring one at its
// next run time with the failure counters reset.
func (r *JobRepository) Complete(ctx context.Context, job *shared.JobRecord, lockToken string, now time.Time) error {
	if job.RecurEvery == nil {
		_, err := r.db.Exec(ctx, deleteClaimedJobSQL, pgconv.UUIDToPgtype(job.ID), lockToken)
		if err != nil {
			return wrapWriteErr("failed to delete completed job", err)
		}
		return nil
	}

	next := job.RunAt.Add(*job.RecurEvery)
	// Catch up after downtime without replaying every missed tick.
	for !next.After(now) {
		next = next.Add(*job.RecurEvery)
	}

	_, err := r.db.Exec(ctx, advanceRecurringJobSQL,
		pgconv.UUIDToPgtype(job.ID),
		lockToken,
		pgconv.TimeToPgtype(next),
		pgconv.TimeToPgtype(now),
	)
	if err != nil {
		return wrapWriteErr("failed to advance recurring job", err)
	}
	return nil
}

func (r *JobRepository) Reschedule(ctx context.Context, id uuid.UUID, lockToken string, runAt time.Time, failCount int32, lastError string, now time.Time) error {
	_, err := r.db.Exec(ctx, rescheduleJobSQL,
		pgconv.UUIDToPgtype(id),
		lockToken,
		pgconv.TimeToPgtype(runAt),
		failCount,
		lastError,
		pgconv.TimeToPgtype(now),
	)
	if err != nil {
		return wrapWriteErr("failed to reschedule job", err)
	}
	return nil
}

func (r *JobRepository) DeadLetter(ctx context.Context, id uuid.UUID, lockToken string, reason string, now time.Time) error {
	_, err := r.db.Exec(ctx, deadLetterJobSQL,
		pgconv.UUIDToPgtype(id),
		lockToken,
		reason,
		pgconv.TimeToPgtype(now),
	)
	if err != nil {
		return wrapWriteErr("failed to dead-letter job", err)
	}
	return nil
}

var _ shared.JobRepository = (*JobRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJobRow(row rowScanner) (*shared.JobRecord, error) {
	var (
		job          shared.JobRecord
		id           pgtype.UUID
		payload      []byte
		runAt        pgtype.Timestamptz
		recurSec     pgtype.Int8
		lockToken    pgtype.Text
		lockedUntil  pgtype.Timestamptz
		dlReason     pgtype.Text
		deadLettered pgtype.Timestamptz
		lastError    pgtype.Text
		createdAt    pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &job.Name, &payload, &runAt, &recurSec,
		&lockToken, &lockedUntil, &job.FailCount, &job.Status,
		&job.DeadLetter, &dlReason, &deadLettered, &lastError,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.ID = uuid.UUID(id.Bytes)
	job.Payload = payload
	job.RunAt = pgconv.TimeFromPgtype(runAt)
	job.RecurEvery = secToDurationPtr(recurSec)
	job.LockToken = pgconv.StringPtrFromPgtype(lockToken)
	job.LockedUntil = pgconv.TimePtrFromPgtype(lockedUntil)
	job.DeadLetterReason = pgconv.StringPtrFromPgtype(dlReason)
	job.DeadLetteredAt = pgconv.TimePtrFromPgtype(deadLettered)
	job.LastError = pgconv.StringPtrFromPgtype(lastError)
	job.CreatedAt = pgconv.TimeFromPgtype(createdAt)
	job.UpdatedAt = pgconv.TimeFromPgtype(updatedAt)
	return &job, nil
}

func durationPtrToSec(d *time.Duration) pgtype.Int8 {
	if d == nil {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Int64: int64(*d / time.Second), Valid: true}
}

func secToDurationPtr(sec pgtype.Int8) *time.Duration {
	if !sec.Valid {
		return nil
	}
	d := time.Duration(sec.Int64) * time.Second
	return &d
}
