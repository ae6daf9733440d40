package shared

import (
	"encoding/json"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/errs"

	"github.com/google/uuid"
)

type JobName string

const (
	JobAutoCancelReservation JobName = "reservation.auto_cancel"
	JobConfirmationNotice    JobName = "notify.confirmation"
	JobReceipt               JobName = "notify.receipt"
	JobReviewRequest         JobName = "notify.review_request"
	JobCancellationNotice    JobName = "notify.cancellation"
	JobAccountDeletion       JobName = "account.deletion"
	JobResourceCleanup       JobName = "cleanup.resources"
)

func (n JobName) IsValid() bool {
	switch n {
	case JobAutoCancelReservation, JobConfirmationNotice, JobReceipt,
		JobReviewRequest, JobCancellationNotice, JobAccountDeletion, JobResourceCleanup:
		return true
	default:
		return false
	}
}

func (n JobName) String() string {
	return string(n)
}

type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
)

// JobRecord is one row of the persistent scheduler table. RecurEvery set
// means the job advances its run time on success instead of being deleted.
type JobRecord struct {
	ID               uuid.UUID
	Name             JobName
	Payload          json.RawMessage
	RunAt            time.Time
	RecurEvery       *time.Duration
	LockToken        *string
	LockedUntil      *time.Time
	FailCount        int32
	Status           JobStatus
	DeadLetter       bool
	DeadLetterReason *string
	DeadLetteredAt   *time.Time
	LastError        *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Per-name payload schemas. Payloads are decoded at claim time; rows whose
// payload no longer matches the schema are dead-lettered instead of letting
// a handler crash on missing fields.

type ReservationJobPayload struct {
	ReservationID uuid.UUID `json:"reservation_id"`
}

type AccountDeletionPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

type ResourceCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

var ErrUnknownJobName = errs.New("unknown job name")
var ErrInvalidJobPayload = errs.New("job payload does not match schema")

// DecodeJobPayload validates raw against the schema registered for name and
// returns the typed payload.
func DecodeJobPayload(name JobName, raw json.RawMessage) (any, error) {
	switch name {
	case JobAutoCancelReservation, JobConfirmationNotice, JobReceipt, JobReviewRequest, JobCancellationNotice:
		var p ReservationJobPayload
		if err := strictDecode(raw, &p); err != nil {
			return nil, errs.Mark(err, ErrInvalidJobPayload)
		}
		if p.ReservationID == uuid.Nil {
			return nil, ErrInvalidJobPayload
		}
		return p, nil
	case JobAccountDeletion:
		var p AccountDeletionPayload
		if err := strictDecode(raw, &p); err != nil {
			return nil, errs.Mark(err, ErrInvalidJobPayload)
		}
		if p.UserID == uuid.Nil {
			return nil, ErrInvalidJobPayload
		}
		return p, nil
	case JobResourceCleanup:
		var p ResourceCleanupPayload
		if err := strictDecode(raw, &p); err != nil {
			return nil, errs.Mark(err, ErrInvalidJobPayload)
		}
		return p, nil
	default:
		return nil, ErrUnknownJobName
	}
}

func MarshalJobPayload(payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errs.Wrap(err, "failed to marshal job payload")
	}
	return data, nil
}

func strictDecode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errs.New("empty payload")
	}
	return json.Unmarshal(raw, dst)
}
