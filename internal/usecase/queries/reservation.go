package queries

import (
	"context"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/errs"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrReservationNotFound = errs.New("reservation not found")
	ErrForbidden           = errs.New("actor may not view this reservation")
)

// Read models (DTO for read side)
type ReservationView struct {
	ID               uuid.UUID  `json:"id"`
	PropertyID       uuid.UUID  `json:"property_id"`
	PropertyTitle    string     `json:"property_title"`
	HostID           uuid.UUID  `json:"host_id"`
	UserID           uuid.UUID  `json:"user_id"`
	CheckInDate      time.Time  `json:"check_in_date"`
	CheckOutDate     time.Time  `json:"check_out_date"`
	PartySize        int        `json:"party_size"`
	Status           string     `json:"status"`
	IsSelfBooked     bool       `json:"is_self_booked"`
	IsInstantBooking bool       `json:"is_instant_booking"`
	HostDecision     *string    `json:"host_decision,omitempty"`
	CancelledBy      *string    `json:"cancelled_by,omitempty"`
	CancelReason     *string    `json:"cancel_reason,omitempty"`
	PaymentLink      *string    `json:"payment_link,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	HostDecisionAt   *time.Time `json:"host_decision_at,omitempty"`
	TotalPrice       *int64     `json:"total_price,omitempty"`
	TotalAmountPaid  *int64     `json:"total_amount_paid,omitempty"`
	TotalRefunded    *int64     `json:"total_refunded,omitempty"`
	RemainingAmount  *int64     `json:"remaining_amount,omitempty"`
	HasRefunds       *bool      `json:"has_refunds,omitempty"`
	Currency         *string    `json:"currency,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type ReservationListItem struct {
	ID            uuid.UUID `json:"id"`
	PropertyID    uuid.UUID `json:"property_id"`
	PropertyTitle string    `json:"property_title"`
	CheckInDate   time.Time `json:"check_in_date"`
	CheckOutDate  time.Time `json:"check_out_date"`
	Status        string    `json:"status"`
	TotalPrice    *int64    `json:"total_price,omitempty"`
	Currency      *string   `json:"currency,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type ReservationQueries interface {
	GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ReservationView, error)
	ListByUser(ctx context.Context, actor shared.Actor) ([]*ReservationListItem, error)
	ListByHost(ctx context.Context, actor shared.Actor) ([]*ReservationListItem, error)
}

type ReservationReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*ReservationListItem, error)
	FindByHostID(ctx context.Context, hostID uuid.UUID) ([]*ReservationListItem, error)
}

type reservationQueriesImpl struct {
	store ReservationReadStore
}

func NewReservationQueries(store ReservationReadStore) ReservationQueries {
	return &reservationQueriesImpl{store: store}
}

func (q *reservationQueriesImpl) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*ReservationView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, errs.Wrap(err, "failed to find reservation")
	}

	// Guests and hosts see their own bookings; admins see everything.
	if view.UserID != actor.UserID && view.HostID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	return view, nil
}

func (q *reservationQueriesImpl) ListByUser(ctx context.Context, actor shared.Actor) ([]*ReservationListItem, error) {
	items, err := q.store.FindByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list user reservations")
	}
	return items, nil
}

func (q *reservationQueriesImpl) ListByHost(ctx context.Context, actor shared.Actor) ([]*ReservationListItem, error) {
	items, err := q.store.FindByHostID(ctx, actor.UserID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list host reservations")
	}
	return items, nil
}
