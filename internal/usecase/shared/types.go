package shared

import (
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/billing"

	"github.com/google/uuid"
)

type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleGuest, RoleHost, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// Actor is the authenticated identity passed explicitly into every command
// instead of being read from request-scoped globals.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// System is the actor used by scheduled jobs and webhook processing.
var System = Actor{UserID: uuid.Nil, Role: RoleAdmin}

// PropertySnapshot is the slice of the listing service's data the booking
// flow needs; the listing service owns the full record.
type PropertySnapshot struct {
	ID               uuid.UUID
	HostID           uuid.UUID
	Title            string
	MaxGuests        int
	IsInstantBooking bool
	NightlyRate      int64
	CleaningFee      int64
	Currency         string
}

// TransactionRecord is one row of the append-only monetary ledger.
type TransactionRecord struct {
	ID            uuid.UUID
	BillingID     uuid.UUID
	ReservationID uuid.UUID
	Type          billing.TransactionType
	PaymentStatus billing.PaymentStatus
	Amount        int64
	Currency      string
	PaymentRef    *string
	RefundRef     *string
	ReversesID    *uuid.UUID
	ReceiptURL    *string
	CardSummary   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type EventLogStatus string

const (
	EventQueued     EventLogStatus = "queued"
	EventProcessing EventLogStatus = "processing"
	EventComplete   EventLogStatus = "complete"
	EventFailed     EventLogStatus = "failed"
)

// EventClaim is the result of the insert-or-bump upsert that guards
// exactly-once webhook processing.
type EventClaim struct {
	EventID         string
	Status          EventLogStatus
	ProcessAttempts int32
	ProcessedBy     string
}

func (c *EventClaim) AlreadyProcessed() bool {
	return c.Status == EventComplete
}
