package repository

import (
	"context"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/db"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/pgconv"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"
)

// The reservations table carries an exclusion constraint on
// (property_id, stay period) scoped to active statuses, so overlapping
// bookings fail at insert time with an exclusion violation.
const createReservationSQL = `
INSERT INTO reservations (
	id, host_id, user_id, property_id,
	check_in_date, check_out_date, party_size,
	status, is_self_booked, is_instant_booking,
	host_decision, cancelled_by, cancel_reason,
	checkout_ref, payment_link,
	expires_at, confirmed_at, cancelled_at, host_decision_at,
	created_at, updated_at
) VALUES (
	$1, $2, $3, $4,
	$5, $6, $7,
	$8, $9, $10,
	$11, $12, $13,
	$14, $15,
	$16, $17, $18, $19,
	$20, $21
)`

const saveReservationSQL = `
UPDATE reservations SET
	status = $2,
	host_decision = $3,
	cancelled_by = $4,
	cancel_reason = $5,
	checkout_ref = $6,
	payment_link = $7,
	expires_at = $8,
	confirmed_at = $9,
	cancelled_at = $10,
	host_decision_at = $11,
	updated_at = $12
WHERE id = $1`

const deleteExpiredOpenSQL = `
DELETE FROM reservations
WHERE status = 'open'
  AND expires_at IS NOT NULL
  AND expires_at <= $1`

type ReservationRepository struct {
	db db.DBTX
}

func NewReservationRepository(dbtx db.DBTX) *ReservationRepository {
	return &ReservationRepository{db: dbtx}
}

func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	_, err := r.db.Exec(ctx, createReservationSQL,
		pgconv.UUIDToPgtype(res.ID()),
		pgconv.UUIDToPgtype(res.HostID()),
		pgconv.UUIDToPgtype(res.UserID()),
		pgconv.UUIDToPgtype(res.PropertyID()),
		pgconv.DateToPgtype(res.DateRange().CheckIn()),
		pgconv.DateToPgtype(res.DateRange().CheckOut()),
		res.PartySize().Value(),
		string(res.Status()),
		res.IsSelfBooked(),
		res.IsInstantBooking(),
		pgconv.StringPtrToPgtype(hostDecisionPtr(res.HostDecision())),
		pgconv.StringPtrToPgtype(cancelledByPtr(res.CancelledBy())),
		pgconv.StringPtrToPgtype(res.CancelReason()),
		pgconv.StringPtrToPgtype(res.CheckoutRef()),
		pgconv.StringPtrToPgtype(res.PaymentLink()),
		pgconv.TimePtrToPgtype(res.ExpiresAt()),
		pgconv.TimePtrToPgtype(res.ConfirmedAt()),
		pgconv.TimePtrToPgtype(res.CancelledAt()),
		pgconv.TimePtrToPgtype(res.HostDecisionAt()),
		pgconv.TimeToPgtype(res.CreatedAt()),
		pgconv.TimeToPgtype(res.UpdatedAt()),
	)
	if err != nil {
		return wrapWriteErr("failed to create reservation", err)
	}
	return nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *reservation.Reservation) error {
	tag, err := r.db.Exec(ctx, saveReservationSQL,
		pgconv.UUIDToPgtype(res.ID()),
		string(res.Status()),
		pgconv.StringPtrToPgtype(hostDecisionPtr(res.HostDecision())),
		pgconv.StringPtrToPgtype(cancelledByPtr(res.CancelledBy())),
		pgconv.StringPtrToPgtype(res.CancelReason()),
		pgconv.StringPtrToPgtype(res.CheckoutRef()),
		pgconv.StringPtrToPgtype(res.PaymentLink()),
		pgconv.TimePtrToPgtype(res.ExpiresAt()),
		pgconv.TimePtrToPgtype(res.ConfirmedAt()),
		pgconv.TimePtrToPgtype(res.CancelledAt()),
		pgconv.TimePtrToPgtype(res.HostDecisionAt()),
		pgconv.TimeToPgtype(res.UpdatedAt()),
	)
	if err != nil {
		return wrapWriteErr("failed to save reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *ReservationRepository) DeleteExpiredOpen(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteExpiredOpenSQL, pgconv.TimeToPgtype(now))
	if err != nil {
		return 0, wrapWriteErr("failed to delete expired reservations", err)
	}
	return tag.RowsAffected(), nil
}

var _ shared.ReservationRepository = (*ReservationRepository)(nil)

func hostDecisionPtr(d *reservation.HostDecision) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}

func cancelledByPtr(c *reservation.CancelledBy) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}
