package readstore

import (
	"context"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/db"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/pgconv"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const findPropertyByIDSQL = `
SELECT id, host_id, title, max_guests, is_instant_booking,
	nightly_rate, cleaning_fee, currency
FROM properties
WHERE id = $1`

// PropertyReadStore exposes the booking-relevant slice of the listings
// table; the listing service owns everything else about a property.
type PropertyReadStore struct {
	db db.DBTX
}

func NewPropertyReadStore(dbtx db.DBTX) *PropertyReadStore {
	return &PropertyReadStore{db: dbtx}
}

func (r *PropertyReadStore) FindByID(ctx context.Context, id uuid.UUID) (*shared.PropertySnapshot, error) {
	var (
		snap           shared.PropertySnapshot
		propID, hostID pgtype.UUID
	)
	err := r.db.QueryRow(ctx, findPropertyByIDSQL, pgconv.UUIDToPgtype(id)).Scan(
		&propID, &hostID, &snap.Title, &snap.MaxGuests, &snap.IsInstantBooking,
		&snap.NightlyRate, &snap.CleaningFee, &snap.Currency,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("property not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find property by ID", err)
	}
	snap.ID = uuid.UUID(propID.Bytes)
	snap.HostID = uuid.UUID(hostID.Bytes)
	return &snap, nil
}
