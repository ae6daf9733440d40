package readstore

import (
	"context"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/db"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const reservationColumns = `
	id, host_id, user_id, property_id,
	check_in_date, check_out_date, party_size,
	status, is_self_booked, is_instant_booking,
	host_decision, cancelled_by, cancel_reason,
	checkout_ref, payment_link,
	expires_at, confirmed_at, cancelled_at, host_decision_at,
	created_at, updated_at`

const findReservationByIDSQL = `
SELECT` + reservationColumns + `
FROM reservations
WHERE id = $1`

const findReservationByCheckoutRefSQL = `
SELECT` + reservationColumns + `
FROM reservations
WHERE checkout_ref = $1`

// ReservationReadStore rehydrates reservation aggregates for the command
// side; the view queries for API reads live in ReservationViewStore.
type ReservationReadStore struct {
	db db.DBTX
}

func NewReservationReadStore(dbtx db.DBTX) *ReservationReadStore {
	return &ReservationReadStore{db: dbtx}
}

func (r *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	row := r.db.QueryRow(ctx, findReservationByIDSQL, pgconv.UUIDToPgtype(id))
	res, err := scanReservation(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation by ID", err)
	}
	return res, nil
}

func (r *ReservationReadStore) FindByCheckoutRef(ctx context.Context, ref string) (*reservation.Reservation, error) {
	row := r.db.QueryRow(ctx, findReservationByCheckoutRefSQL, ref)
	res, err := scanReservation(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found by checkout ref", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation by checkout ref", err)
	}
	return res, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*reservation.Reservation, error) {
	var (
		id, hostID, userID, propertyID pgtype.UUID
		checkIn, checkOut              pgtype.Date
		partySizeVal                   int
		status                         string
		isSelfBooked, isInstant        bool
		hostDecision                   pgtype.Text
		cancelledBy                    pgtype.Text
		cancelReason                   pgtype.Text
		checkoutRef, paymentLink       pgtype.Text
		expiresAt, confirmedAt         pgtype.Timestamptz
		cancelledAt, hostDecisionAt    pgtype.Timestamptz
		createdAt, updatedAt           pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &hostID, &userID, &propertyID,
		&checkIn, &checkOut, &partySizeVal,
		&status, &isSelfBooked, &isInstant,
		&hostDecision, &cancelledBy, &cancelReason,
		&checkoutRef, &paymentLink,
		&expiresAt, &confirmedAt, &cancelledAt, &hostDecisionAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	dateRange, err := reservation.NewDateRange(pgconv.DateFromPgtype(checkIn), pgconv.DateFromPgtype(checkOut))
	if err != nil {
		return nil, err
	}
	partySize, err := reservation.NewPartySize(partySizeVal)
	if err != nil {
		return nil, err
	}

	return reservation.ReconstructReservation(
		uuid.UUID(id.Bytes), uuid.UUID(hostID.Bytes), uuid.UUID(userID.Bytes), uuid.UUID(propertyID.Bytes),
		dateRange,
		partySize,
		reservation.Status(status),
		isSelfBooked, isInstant,
		hostDecisionFromText(hostDecision),
		cancelledByFromText(cancelledBy),
		pgconv.StringPtrFromPgtype(cancelReason),
		pgconv.StringPtrFromPgtype(checkoutRef),
		pgconv.StringPtrFromPgtype(paymentLink),
		pgconv.TimePtrFromPgtype(expiresAt),
		pgconv.TimePtrFromPgtype(confirmedAt),
		pgconv.TimePtrFromPgtype(cancelledAt),
		pgconv.TimePtrFromPgtype(hostDecisionAt),
		pgconv.TimeFromPgtype(createdAt),
		pgconv.TimeFromPgtype(updatedAt),
	), nil
}

func hostDecisionFromText(t pgtype.Text) *reservation.HostDecision {
	if !t.Valid {
		return nil
	}
	d := reservation.HostDecision(t.String)
	return &d
}

func cancelledByFromText(t pgtype.Text) *reservation.CancelledBy {
	if !t.Valid {
		return nil
	}
	c := reservation.CancelledBy(t.String)
	return &c
}
