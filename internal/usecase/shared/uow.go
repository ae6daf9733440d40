package shared

import (
	"context"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/billing"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"

	"github.com/google/uuid"
)

// UnitOfWork is the store's transaction boundary. Every multi-entity
// mutation (reservation + billing + transaction + event log + jobs) runs
// inside a single Within call; no intermediate state is durably visible.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Reads gives non-transactional command reads for validation outside transactions.
	Reads() CommandReads
}

type Tx interface {
	Reservations() ReservationRepository
	Billings() BillingRepository
	Transactions() TransactionRepository
	EventLog() EventLogRepository
	Jobs() JobRepository
	Reads() CommandReads
}

type ReservationRepository interface {
	Create(ctx context.Context, res *reservation.Reservation) error
	Save(ctx context.Context, res *reservation.Reservation) error
	// DeleteExpiredOpen removes reservations that never reached processing
	// within the payment window.
	DeleteExpiredOpen(ctx context.Context, now time.Time) (int64, error)
}

type BillingRepository interface {
	Create(ctx context.Context, b *billing.Billing) error
	Save(ctx context.Context, b *billing.Billing) error
}

type TransactionRepository interface {
	Create(ctx context.Context, tr *TransactionRecord) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status billing.PaymentStatus) error
	AttachPaymentRef(ctx context.Context, id uuid.UUID, paymentRef string) error
	// EnrichMetadata attaches receipt/card details to a settled row without
	// touching its monetary fields.
	EnrichMetadata(ctx context.Context, id uuid.UUID, receiptURL, cardSummary *string) error
}

type EventLogRepository interface {
	// Claim inserts the event row if absent, otherwise bumps its attempt
	// counter, and returns the row's prior status. Runs inside the same
	// transaction as the domain mutation it guards.
	Claim(ctx context.Context, eventID, processedBy string, now time.Time) (*EventClaim, error)
	MarkComplete(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID, reason string) error
	// PruneCompleted drops completed rows older than the cutoff. Redeliveries
	// past the retention horizon reprocess, which every handler tolerates.
	PruneCompleted(ctx context.Context, before time.Time) (int64, error)
}

type JobRepository interface {
	Enqueue(ctx context.Context, job *JobRecord) error
	// CancelPending deletes queued, unclaimed jobs matching name and the
	// reservation id in their payload. Claimed jobs are left alone; their
	// handlers re-validate state before acting.
	CancelPending(ctx context.Context, name JobName, reservationID uuid.UUID) (int64, error)
}

type CommandReads interface {
	PropertyByID(ctx context.Context, id uuid.UUID) (*PropertySnapshot, error)
	ReservationByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	ReservationByCheckoutRef(ctx context.Context, ref string) (*reservation.Reservation, error)
	BillingByReservationID(ctx context.Context, reservationID uuid.UUID) (*billing.Billing, error)
	TransactionsByBillingID(ctx context.Context, billingID uuid.UUID) ([]*TransactionRecord, error)
	TransactionByPaymentRef(ctx context.Context, paymentRef string) (*TransactionRecord, error)
	TransactionByRefundRef(ctx context.Context, refundRef string) (*TransactionRecord, error)
}
