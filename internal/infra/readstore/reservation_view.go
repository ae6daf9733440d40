package readstore

import (
	"context"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/db"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/pgconv"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Self-booked reservations carry no billing row, so the monetary columns
// come back NULL and stay nil on the view.
const findReservationViewByIDSQL = `
SELECT
	r.id, r.property_id, p.title, r.host_id, r.user_id,
	r.check_in_date, r.check_out_date, r.party_size,
	r.status, r.is_self_booked, r.is_instant_booking,
	r.host_decision, r.cancelled_by, r.cancel_reason,
	r.payment_link, r.expires_at, r.confirmed_at, r.cancelled_at, r.host_decision_at,
	b.total_price, b.total_amount_paid, b.total_refunded, b.remaining_amount,
	b.has_refunds, b.currency,
	r.created_at, r.updated_at
FROM reservations r
JOIN properties p ON p.id = r.property_id
LEFT JOIN billings b ON b.reservation_id = r.id
WHERE r.id = $1`

const listReservationsByUserSQL = `
SELECT
	r.id, r.property_id, p.title,
	r.check_in_date, r.check_out_date,
	r.status, b.total_price, b.currency, r.created_at
FROM reservations r
JOIN properties p ON p.id = r.property_id
LEFT JOIN billings b ON b.reservation_id = r.id
WHERE r.user_id = $1
ORDER BY r.created_at DESC`

const listReservationsByHostSQL = `
SELECT
	r.id, r.property_id, p.title,
	r.check_in_date, r.check_out_date,
	r.status, b.total_price, b.currency, r.created_at
FROM reservations r
JOIN properties p ON p.id = r.property_id
LEFT JOIN billings b ON b.reservation_id = r.id
WHERE r.host_id = $1
ORDER BY r.created_at DESC`

type ReservationViewStore struct {
	db db.DBTX
}

func NewReservationViewStore(dbtx db.DBTX) *ReservationViewStore {
	return &ReservationViewStore{db: dbtx}
}

func (r *ReservationViewStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	var (
		view                        queries.ReservationView
		resID, propID, hostID       pgtype.UUID
		userID                      pgtype.UUID
		checkIn, checkOut           pgtype.Date
		hostDecision, cancelledBy   pgtype.Text
		cancelReason, paymentLink   pgtype.Text
		expiresAt, confirmedAt      pgtype.Timestamptz
		cancelledAt, hostDecisionAt pgtype.Timestamptz
		totalPrice, totalPaid       pgtype.Int8
		totalRefunded, remaining    pgtype.Int8
		hasRefunds                  pgtype.Bool
		currency                    pgtype.Text
		createdAt, updatedAt        pgtype.Timestamptz
	)

	err := r.db.QueryRow(ctx, findReservationViewByIDSQL, pgconv.UUIDToPgtype(id)).Scan(
		&resID, &propID, &view.PropertyTitle, &hostID, &userID,
		&checkIn, &checkOut, &view.PartySize,
		&view.Status, &view.IsSelfBooked, &view.IsInstantBooking,
		&hostDecision, &cancelledBy, &cancelReason,
		&paymentLink, &expiresAt, &confirmedAt, &cancelledAt, &hostDecisionAt,
		&totalPrice, &totalPaid, &totalRefunded, &remaining,
		&hasRefunds, &currency,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation view", err)
	}

	view.ID = uuid.UUID(resID.Bytes)
	view.PropertyID = uuid.UUID(propID.Bytes)
	view.HostID = uuid.UUID(hostID.Bytes)
	view.UserID = uuid.UUID(userID.Bytes)
	view.CheckInDate = pgconv.DateFromPgtype(checkIn)
	view.CheckOutDate = pgconv.DateFromPgtype(checkOut)
	view.HostDecision = pgconv.StringPtrFromPgtype(hostDecision)
	view.CancelledBy = pgconv.StringPtrFromPgtype(cancelledBy)
	view.CancelReason = pgconv.StringPtrFromPgtype(cancelReason)
	view.PaymentLink = pgconv.StringPtrFromPgtype(paymentLink)
	view.ExpiresAt = pgconv.TimePtrFromPgtype(expiresAt)
	view.ConfirmedAt = pgconv.TimePtrFromPgtype(confirmedAt)
	view.CancelledAt = pgconv.TimePtrFromPgtype(cancelledAt)
	view.HostDecisionAt = pgconv.TimePtrFromPgtype(hostDecisionAt)
	view.TotalPrice = int64PtrFromPgtype(totalPrice)
	view.TotalAmountPaid = int64PtrFromPgtype(totalPaid)
	view.TotalRefunded = int64PtrFromPgtype(totalRefunded)
	view.RemainingAmount = int64PtrFromPgtype(remaining)
	view.HasRefunds = boolPtrFromPgtype(hasRefunds)
	view.Currency = pgconv.StringPtrFromPgtype(currency)
	view.CreatedAt = pgconv.TimeFromPgtype(createdAt)
	view.UpdatedAt = pgconv.TimeFromPgtype(updatedAt)
	return &view, nil
}

func (r *ReservationViewStore) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*queries.ReservationListItem, error) {
	return r.listReservations(ctx, listReservationsByUserSQL, userID, "failed to list reservations by user")
}

func (r *ReservationViewStore) FindByHostID(ctx context.Context, hostID uuid.UUID) ([]*queries.ReservationListItem, error) {
	return r.listReservations(ctx, listReservationsByHostSQL, hostID, "failed to list reservations by host")
}

func (r *ReservationViewStore) listReservations(ctx context.Context, sql string, ownerID uuid.UUID, errMsg string) ([]*queries.ReservationListItem, error) {
	rows, err := r.db.Query(ctx, sql, pgconv.UUIDToPgtype(ownerID))
	if err != nil {
		return nil, infra.WrapRepoErr(errMsg, err)
	}
	defer rows.Close()

	items := []*queries.ReservationListItem{}
	for rows.Next() {
		var (
			item              queries.ReservationListItem
			id, propID        pgtype.UUID
			checkIn, checkOut pgtype.Date
			totalPrice        pgtype.Int8
			currency          pgtype.Text
			createdAt         pgtype.Timestamptz
		)
		err := rows.Scan(
			&id, &propID, &item.PropertyTitle,
			&checkIn, &checkOut,
			&item.Status, &totalPrice, &currency, &createdAt,
		)
		if err != nil {
			return nil, infra.WrapRepoErr(errMsg, err)
		}
		item.ID = uuid.UUID(id.Bytes)
		item.PropertyID = uuid.UUID(propID.Bytes)
		item.CheckInDate = pgconv.DateFromPgtype(checkIn)
		item.CheckOutDate = pgconv.DateFromPgtype(checkOut)
		item.TotalPrice = int64PtrFromPgtype(totalPrice)
		item.Currency = pgconv.StringPtrFromPgtype(currency)
		item.CreatedAt = pgconv.TimeFromPgtype(createdAt)
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(errMsg, err)
	}
	return items, nil
}

var _ queries.ReservationReadStore = (*ReservationViewStore)(nil)

func int64PtrFromPgtype(v pgtype.Int8) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func boolPtrFromPgtype(v pgtype.Bool) *bool {
	if !v.Valid {
		return nil
	}
	return &v.Bool
}
