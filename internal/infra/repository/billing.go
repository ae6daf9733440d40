package repository

import (
	"context"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/billing"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/db"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/pgconv"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"
)

const createBillingSQL = `
INSERT INTO billings (
	id, reservation_id,
	nightly_rate, nights, base_total,
	length_of_stay_off, promo_off,
	cleaning_fee, service_fee, tax_amount, platform_fee,
	currency,
	exchange_rate, exchange_base, exchange_target, exchange_captured_at,
	total_price, total_amount_paid, remaining_amount, total_refunded,
	has_refunds,
	created_at, updated_at
) VALUES (
	$1, $2,
	$3, $4, $5,
	$6, $7,
	$8, $9, $10, $11,
	$12,
	$13, $14, $15, $16,
	$17, $18, $19, $20,
	$21,
	$22, $23
)`

// Pricing columns are immutable after creation; only the running totals
// move as payments and refunds settle.
const saveBillingSQL = `
UPDATE billings SET
	total_amount_paid = $2,
	remaining_amount = $3,
	total_refunded = $4,
	has_refunds = $5,
	updated_at = $6
WHERE id = $1`

type BillingRepository struct {
	db db.DBTX
}

func NewBillingRepository(dbtx db.DBTX) *BillingRepository {
	return &BillingRepository{db: dbtx}
}

func (r *BillingRepository) Create(ctx context.Context, b *billing.Billing) error {
	ex := b.Exchange()
	_, err := r.db.Exec(ctx, createBillingSQL,
		pgconv.UUIDToPgtype(b.ID()),
		pgconv.UUIDToPgtype(b.ReservationID()),
		b.NightlyRate(),
		b.Nights(),
		b.BaseTotal(),
		b.LengthOfStayOff(),
		b.PromoOff(),
		b.CleaningFee(),
		b.ServiceFee(),
		b.TaxAmount(),
		b.PlatformFee(),
		b.Currency(),
		ex.Rate,
		ex.BaseCurrency,
		ex.TargetCurrency,
		pgconv.TimeToPgtype(ex.CapturedAt),
		b.TotalPrice(),
		b.TotalAmountPaid(),
		b.RemainingAmount(),
		b.TotalRefunded(),
		b.HasRefunds(),
		pgconv.TimeToPgtype(b.CreatedAt()),
		pgconv.TimeToPgtype(b.UpdatedAt()),
	)
	if err != nil {
		return wrapWriteErr("failed to create billing", err)
	}
	return nil
}

func (r *BillingRepository) Save(ctx context.Context, b *billing.Billing) error {
	tag, err := r.db.Exec(ctx, saveBillingSQL,
		pgconv.UUIDToPgtype(b.ID()),
		b.TotalAmountPaid(),
		b.RemainingAmount(),
		b.TotalRefunded(),
		b.HasRefunds(),
		pgconv.TimeToPgtype(b.UpdatedAt()),
	)
	if err != nil {
		return wrapWriteErr("failed to save billing", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("billing not found", nil, infra.KindNotFound)
	}
	return nil
}

var _ shared.BillingRepository = (*BillingRepository)(nil)
