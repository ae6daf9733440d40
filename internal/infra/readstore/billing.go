package readstore

import (
	"context"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/billing"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/db"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/pgconv"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const findBillingByReservationIDSQL = `
SELECT
	id, reservation_id,
	nightly_rate, nights, base_total,
	length_of_stay_off, promo_off,
	cleaning_fee, service_fee, tax_amount, platform_fee,
	currency,
	exchange_rate, exchange_base, exchange_target, exchange_captured_at,
	total_price, total_amount_paid, remaining_amount, total_refunded,
	has_refunds,
	created_at, updated_at
FROM billings
WHERE reservation_id = $1`

const transactionColumns = `
	id, billing_id, reservation_id,
	type, payment_status,
	amount, currency,
	payment_ref, refund_ref, reverses_id,
	receipt_url, card_summary,
	created_at, updated_at`

const findTransactionsByBillingIDSQL = `
SELECT` + transactionColumns + `
FROM transactions
WHERE billing_id = $1
ORDER BY created_at`

const findTransactionByPaymentRefSQL = `
SELECT` + transactionColumns + `
FROM transactions
WHERE payment_ref = $1`

const findTransactionByRefundRefSQL = `
SELECT` + transactionColumns + `
FROM transactions
WHERE refund_ref = $1`

type BillingReadStore struct {
	db db.DBTX
}

func NewBillingReadStore(dbtx db.DBTX) *BillingReadStore {
	return &BillingReadStore{db: dbtx}
}

func (r *BillingReadStore) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*billing.Billing, error) {
	var (
		id, resID            pgtype.UUID
		nightlyRate          int64
		nights               int
		baseTotal, losOff    int64
		promoOff             int64
		cleaningFee          int64
		serviceFee           int64
		taxAmount            int64
		platformFee          int64
		currency             string
		exRate               float64
		exBase, exTarget     string
		exCapturedAt         pgtype.Timestamptz
		totalPrice           int64
		totalPaid, remaining int64
		totalRefunded        int64
		hasRefunds           bool
		createdAt, updatedAt pgtype.Timestamptz
	)

	err := r.db.QueryRow(ctx, findBillingByReservationIDSQL, pgconv.UUIDToPgtype(reservationID)).Scan(
		&id, &resID,
		&nightlyRate, &nights, &baseTotal,
		&losOff, &promoOff,
		&cleaningFee, &serviceFee, &taxAmount, &platformFee,
		&currency,
		&exRate, &exBase, &exTarget, &exCapturedAt,
		&totalPrice, &totalPaid, &remaining, &totalRefunded,
		&hasRefunds,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("billing not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find billing by reservation ID", err)
	}

	exchange := billing.ExchangeSnapshot{
		Rate:           exRate,
		BaseCurrency:   exBase,
		TargetCurrency: exTarget,
		CapturedAt:     pgconv.TimeFromPgtype(exCapturedAt),
	}

	return billing.ReconstructBilling(
		uuid.UUID(id.Bytes), uuid.UUID(resID.Bytes),
		nightlyRate, nights,
		baseTotal, losOff, promoOff,
		cleaningFee, serviceFee, taxAmount, platformFee,
		currency,
		exchange,
		totalPrice, totalPaid, remaining, totalRefunded,
		hasRefunds,
		pgconv.TimeFromPgtype(createdAt), pgconv.TimeFromPgtype(updatedAt),
	), nil
}

func (r *BillingReadStore) FindTransactionsByBillingID(ctx context.Context, billingID uuid.UUID) ([]*shared.TransactionRecord, error) {
	rows, err := r.db.Query(ctx, findTransactionsByBillingIDSQL, pgconv.UUIDToPgtype(billingID))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list transactions by billing ID", err)
	}
	defer rows.Close()

	var records []*shared.TransactionRecord
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan transaction row", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read transaction rows", err)
	}
	return records, nil
}

func (r *BillingReadStore) FindTransactionByPaymentRef(ctx context.Context, paymentRef string) (*shared.TransactionRecord, error) {
	rec, err := scanTransaction(r.db.QueryRow(ctx, findTransactionByPaymentRefSQL, paymentRef))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("transaction not found by payment ref", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find transaction by payment ref", err)
	}
	return rec, nil
}

func (r *BillingReadStore) FindTransactionByRefundRef(ctx context.Context, refundRef string) (*shared.TransactionRecord, error) {
	rec, err := scanTransaction(r.db.QueryRow(ctx, findTransactionByRefundRefSQL, refundRef))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("transaction not found by refund ref", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find transaction by refund ref", err)
	}
	return rec, nil
}

func scanTransaction(row rowScanner) (*shared.TransactionRecord, error) {
	var (
		rec                  shared.TransactionRecord
		id, billingID, resID pgtype.UUID
		txType, payStatus    string
		paymentRef           pgtype.Text
		refundRef            pgtype.Text
		reversesID           pgtype.UUID
		receiptURL           pgtype.Text
		cardSummary          pgtype.Text
		createdAt, updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &billingID, &resID,
		&txType, &payStatus,
		&rec.Amount, &rec.Currency,
		&paymentRef, &refundRef, &reversesID,
		&receiptURL, &cardSummary,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.ID = uuid.UUID(id.Bytes)
	rec.BillingID = uuid.UUID(billingID.Bytes)
	rec.ReservationID = uuid.UUID(resID.Bytes)
	rec.Type = billing.TransactionType(txType)
	rec.PaymentStatus = billing.PaymentStatus(payStatus)
	rec.PaymentRef = pgconv.StringPtrFromPgtype(paymentRef)
	rec.RefundRef = pgconv.StringPtrFromPgtype(refundRef)
	rec.ReversesID = pgconv.UUIDPtrFromPgtype(reversesID)
	rec.ReceiptURL = pgconv.StringPtrFromPgtype(receiptURL)
	rec.CardSummary = pgconv.StringPtrFromPgtype(cardSummary)
	rec.CreatedAt = pgconv.TimeFromPgtype(createdAt)
	rec.UpdatedAt = pgconv.TimeFromPgtype(updatedAt)
	return &rec, nil
}
