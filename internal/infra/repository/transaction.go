package repository

import (
	"context"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/billing"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/db"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/pgconv"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"

	"github.com/google/uuid"
)

const createTransactionSQL = `
INSERT INTO transactions (
	id, billing_id, reservation_id,
	type, payment_status,
	amount, currency,
	payment_ref, refund_ref, reverses_id,
	receipt_url, card_summary,
	created_at, updated_at
) VALUES (
	$1, $2, $3,
	$4, $5,
	$6, $7,
	$8, $9, $10,
	$11, $12,
	$13, $14
)`

const updateTransactionStatusSQL = `
UPDATE transactions SET payment_status = $2, updated_at = now()
WHERE id = $1`

const attachPaymentRefSQL = `
UPDATE transactions SET payment_ref = $2, updated_at = now()
WHERE id = $1`

const enrichTransactionSQL = `
UPDATE transactions SET
	receipt_url = COALESCE($2, receipt_url),
	card_summary = COALESCE($3, card_summary),
	updated_at = now()
WHERE id = $1`

// Ledger rows are append-only: amounts and types are never updated, only
// the settlement status and gateway references move after insert.
type TransactionRepository struct {
	db db.DBTX
}

func NewTransactionRepository(dbtx db.DBTX) *TransactionRepository {
	return &TransactionRepository{db: dbtx}
}

func (r *TransactionRepository) Create(ctx context.Context, tr *shared.TransactionRecord) error {
	_, err := r.db.Exec(ctx, createTransactionSQL,
		pgconv.UUIDToPgtype(tr.ID),
		pgconv.UUIDToPgtype(tr.BillingID),
		pgconv.UUIDToPgtype(tr.ReservationID),
		string(tr.Type),
		string(tr.PaymentStatus),
		tr.Amount,
		tr.Currency,
		pgconv.StringPtrToPgtype(tr.PaymentRef),
		pgconv.StringPtrToPgtype(tr.RefundRef),
		pgconv.UUIDPtrToPgtype(tr.ReversesID),
		pgconv.StringPtrToPgtype(tr.ReceiptURL),
		pgconv.StringPtrToPgtype(tr.CardSummary),
		pgconv.TimeToPgtype(tr.CreatedAt),
		pgconv.TimeToPgtype(tr.UpdatedAt),
	)
	if err != nil {
		return wrapWriteErr("failed to create transaction", err)
	}
	return nil
}

func (r *TransactionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status billing.PaymentStatus) error {
	tag, err := r.db.Exec(ctx, updateTransactionStatusSQL, pgconv.UUIDToPgtype(id), string(status))
	if err != nil {
		return wrapWriteErr("failed to update transaction status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("transaction not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *TransactionRepository) AttachPaymentRef(ctx context.Context, id uuid.UUID, paymentRef string) error {
	tag, err := r.db.Exec(ctx, attachPaymentRefSQL, pgconv.UUIDToPgtype(id), paymentRef)
	if err != nil {
		return wrapWriteErr("failed to attach payment reference", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("transaction not found", nil, infra.KindNotFound)
	}
	return nil
}

func (r *TransactionRepository) EnrichMetadata(ctx context.Context, id uuid.UUID, receiptURL, cardSummary *string) error {
	_, err := r.db.Exec(ctx, enrichTransactionSQL,
		pgconv.UUIDToPgtype(id),
		pgconv.StringPtrToPgtype(receiptURL),
		pgconv.StringPtrToPgtype(cardSummary),
	)
	if err != nil {
		return wrapWriteErr("failed to enrich transaction metadata", err)
	}
	return nil
}

var _ shared.TransactionRepository = (*TransactionRepository)(nil)
