package repository

import (
	"context"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/db"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/pgconv"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"
)

// The upsert leaves status untouched on conflict, so the returned row
// carries the event's prior status: a fresh insert reports "processing",
// a redelivery of a finished event reports "complete". Running inside the
// same transaction as the domain mutation makes claim-and-apply atomic.
const claimEventSQL = `
INSERT INTO webhook_event_log (
	event_id, status, process_attempts, processed_by, created_at, updated_at
) VALUES (
	$1, 'processing', 1, $2, $3, $3
)
ON CONFLICT (event_id) DO UPDATE SET
	process_attempts = webhook_event_log.process_attempts + 1,
	updated_at = EXCLUDED.updated_at
RETURNING event_id, status, process_attempts, processed_by`

const markEventCompleteSQL = `
UPDATE webhook_event_log SET status = 'complete', failure_reason = NULL, updated_at = now()
WHERE event_id = $1`

const pruneCompletedEventsSQL = `
DELETE FROM webhook_event_log
WHERE status = 'complete' AND updated_at < $1`

const markEventFailedSQL = `
UPDATE webhook_event_log SET status = 'failed', failure_reason = $2, updated_at = now()
WHERE event_id = $1`

type EventLogRepository struct {
	db db.DBTX
}

func NewEventLogRepository(dbtx db.DBTX) *EventLogRepository {
	return &EventLogRepository{db: dbtx}
}

func (r *EventLogRepository) Claim(ctx context.Context, eventID, processedBy string, now time.Time) (*shared.EventClaim, error) {
	var claim shared.EventClaim
	err := r.db.QueryRow(ctx, claimEventSQL, eventID, processedBy, pgconv.TimeToPgtype(now)).
		Scan(&claim.EventID, &claim.Status, &claim.ProcessAttempts, &claim.ProcessedBy)
	if err != nil {
		return nil, wrapWriteErr("failed to claim webhook event", err)
	}
	return &claim, nil
}

func (r *EventLogRepository) MarkComplete(ctx context.Context, eventID string) error {
	tag, err := r.db.Exec(ctx, markEventCompleteSQL, eventID)
	if err != nil {
		return wrapWriteErr("failed to mark webhook event complete", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("webhook event not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *EventLogRepository) MarkFailed(ctx context.Context, eventID, reason string) error {
	_, err := r.db.Exec(ctx, markEventFailedSQL, eventID, reason)
	if err != nil {
		return wrapWriteErr("failed to mark webhook event failed", err)
	}
	return nil
}

func (r *EventLogRepository) PruneCompleted(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, pruneCompletedEventsSQL, pgconv.TimeToPgtype(before))
	if err != nil {
		return 0, wrapWriteErr("failed to prune webhook event log", err)
	}
	return tag.RowsAffected(), nil
}

var _ shared.EventLogRepository = (*EventLogRepository)(nil)
