package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/billing"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/clock"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/config"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/errs"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrEventReservationMissing = errs.New("event references no known reservation")
	ErrEventTransactionMissing = errs.New("event references no known transaction")
)

type WebhookStatus string

const (
	WebhookReceived WebhookStatus = "received"
	WebhookSkipped  WebhookStatus = "skipped"
)

type WebhookOutcome struct {
	Status WebhookStatus
	Reason string
}

type WebhookCommands interface {
	// HandleGatewayEvent applies one verified gateway event exactly once.
	// Redelivery of a processed event id is acknowledged without side effects.
	HandleGatewayEvent(ctx context.Context, event *GatewayEvent) (WebhookOutcome, error)
}

type webhookCommandsImpl struct {
	uow   shared.UnitOfWork
	cfg   config.ReservationConfig
	tag   string
	clock clock.Clock
}

func NewWebhookCommands(
	uow shared.UnitOfWork,
	cfg config.ReservationConfig,
	stripeCfg config.StripeConfig,
	clock clock.Clock,
) WebhookCommands {
	return &webhookCommandsImpl{
		uow:   uow,
		cfg:   cfg,
		tag:   stripeCfg.InstanceTag,
		clock: clock,
	}
}

func (w *webhookCommandsImpl) HandleGatewayEvent(ctx context.Context, event *GatewayEvent) (WebhookOutcome, error) {
	if skipped, reason := w.shouldSkip(event); skipped {
		slog.Warn("webhook event skipped",
			"event_id", event.ID, "type", string(event.Type), "reason", reason)
		return WebhookOutcome{Status: WebhookSkipped, Reason: reason}, nil
	}

	outcome := WebhookOutcome{Status: WebhookReceived}

	err := w.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		claim, err := tx.EventLog().Claim(ctx, event.ID, w.tag, w.clock.Now())
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if claim.AlreadyProcessed() {
			outcome.Reason = "duplicate event"
			return nil
		}

		if err := w.apply(ctx, tx, event); err != nil {
			return err
		}

		return tx.EventLog().MarkComplete(ctx, event.ID)
	})
	if err != nil {
		// The transaction aborted wholesale, so the event log row reverted
		// and the gateway's retry policy will redeliver. The failure is
		// re-recorded in its own transaction; failed is not a terminal
		// status, so the redelivery still reprocesses.
		w.recordFailure(ctx, event, err)
		return WebhookOutcome{}, err
	}

	return outcome, nil
}

func (w *webhookCommandsImpl) recordFailure(ctx context.Context, event *GatewayEvent, applyErr error) {
	err := w.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if _, err := tx.EventLog().Claim(ctx, event.ID, w.tag, w.clock.Now()); err != nil {
			return err
		}
		return tx.EventLog().MarkFailed(ctx, event.ID, applyErr.Error())
	})
	if err != nil {
		slog.Error("could not record webhook failure",
			"event_id", event.ID, "error", err)
	}
}

func (w *webhookCommandsImpl) shouldSkip(event *GatewayEvent) (bool, string) {
	switch event.Type {
	case EventCheckoutStarted, EventPaymentCaptured, EventRefundSettled:
		if event.AffinityTag == "" {
			return true, "no instance metadata"
		}
		if event.AffinityTag != w.tag {
			return true, "event belongs to another instance"
		}
	}
	return false, ""
}

func (w *webhookCommandsImpl) apply(ctx context.Context, tx shared.Tx, event *GatewayEvent) error {
	switch event.Type {
	case EventCheckoutStarted:
		return w.applyCheckoutStarted(ctx, tx, event)
	case EventPaymentCaptured:
		return w.applyPaymentCaptured(ctx, tx, event)
	case EventRefundSettled:
		return w.applyRefundSettled(ctx, tx, event)
	case EventIdentityVerified, EventPayoutAccount:
		// Recorded for audit; account state is owned by the profile service.
		slog.Info("account event acknowledged", "event_id", event.ID, "type", string(event.Type))
		return nil
	default:
		// Unrecognized event types are acknowledged for forward compatibility.
		slog.Debug("unrecognized gateway event ignored", "event_id", event.ID)
		return nil
	}
}

func (w *webhookCommandsImpl) applyCheckoutStarted(ctx context.Context, tx shared.Tx, event *GatewayEvent) error {
	res, err := w.resolveReservation(ctx, tx, event)
	if err != nil {
		return err
	}

	// Capture may have raced ahead of the session event; nothing to do then.
	if res.Status() != reservation.StatusOpen {
		return nil
	}

	if err := res.StartProcessing(w.clock.Now()); err != nil {
		return errs.Mark(err, ErrDomainValidation)
	}
	if err := tx.Reservations().Save(ctx, res); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	return w.advancePaymentTransaction(ctx, tx, res, event, billing.PaymentStatusProcessing)
}

func (w *webhookCommandsImpl) applyPaymentCaptured(ctx context.Context, tx shared.Tx, event *GatewayEvent) error {
	res, err := w.resolveReservation(ctx, tx, event)
	if err != nil {
		return err
	}

	// A capture for a reservation already past processing was applied
	// through a different event id; nothing left to do.
	switch res.Status() {
	case reservation.StatusOpen, reservation.StatusProcessing:
	default:
		return nil
	}

	now := w.clock.Now()
	if err := res.MarkPaymentCaptured(now); err != nil {
		return errs.Mark(err, ErrDomainValidation)
	}
	if err := tx.Reservations().Save(ctx, res); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	bill, err := tx.Reads().BillingByReservationID(ctx, res.ID())
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if err := bill.ApplyPayment(event.AmountMinor, now); err != nil {
		return errs.Mark(err, ErrDomainValidation)
	}
	if err := tx.Billings().Save(ctx, bill); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if err := w.advancePaymentTransaction(ctx, tx, res, event, billing.PaymentStatusPaid); err != nil {
		return err
	}

	return w.scheduleFollowUps(ctx, tx, res, now)
}

func (w *webhookCommandsImpl) applyRefundSettled(ctx context.Context, tx shared.Tx, event *GatewayEvent) error {
	refundTr, err := tx.Reads().TransactionByRefundRef(ctx, event.RefundRef)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return ErrEventTransactionMissing
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if refundTr.PaymentStatus == billing.PaymentStatusRefunded {
		return nil
	}
	if err := tx.Transactions().UpdateStatus(ctx, refundTr.ID, billing.PaymentStatusRefunded); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if refundTr.ReversesID != nil {
		if err := tx.Transactions().UpdateStatus(ctx, *refundTr.ReversesID, billing.PaymentStatusRefunded); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}

	now := w.clock.Now()

	bill, err := tx.Reads().BillingByReservationID(ctx, refundTr.ReservationID)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if err := bill.ApplyRefund(refundTr.Amount, now); err != nil {
		return errs.Mark(err, ErrDomainValidation)
	}
	if err := tx.Billings().Save(ctx, bill); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	res, err := tx.Reads().ReservationByID(ctx, refundTr.ReservationID)
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	by := reservation.CancelledBy(event.Initiator)
	if !by.IsValid() {
		by = reservation.CancelledBySystem
	}
	var reason *string
	if event.Reason != "" {
		reason = &event.Reason
	}
	if err := res.MarkCancelled(by, reason, now); err != nil {
		if !errors.Is(err, reservation.ErrAlreadyCancelled) {
			return errs.Mark(err, ErrDomainValidation)
		}
	}
	if err := tx.Reservations().Save(ctx, res); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if _, err := tx.Jobs().CancelPending(ctx, shared.JobAutoCancelReservation, res.ID()); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	return enqueueReservationJob(ctx, tx, shared.JobCancellationNotice, res.ID(), now.Add(w.cfg.CancelNotifyDelay), nil)
}

func (w *webhookCommandsImpl) scheduleFollowUps(ctx context.Context, tx shared.Tx, res *reservation.Reservation, now time.Time) error {
	if res.Status() == reservation.StatusAwaitingConfirmation {
		if err := enqueueReservationJob(ctx, tx, shared.JobAutoCancelReservation, res.ID(), now.Add(w.cfg.ConfirmationWindow), nil); err != nil {
			return err
		}
	} else {
		if err := enqueueReservationJob(ctx, tx, shared.JobConfirmationNotice, res.ID(), now, nil); err != nil {
			return err
		}
	}

	if err := enqueueReservationJob(ctx, tx, shared.JobReceipt, res.ID(), now.Add(w.cfg.ReceiptDelay), nil); err != nil {
		return err
	}

	return enqueueReservationJob(ctx, tx, shared.JobReviewRequest, res.ID(), res.DateRange().CheckOut(), nil)
}

func (w *webhookCommandsImpl) advancePaymentTransaction(
	ctx context.Context,
	tx shared.Tx,
	res *reservation.Reservation,
	event *GatewayEvent,
	status billing.PaymentStatus,
) error {
	tr, err := w.resolvePaymentTransaction(ctx, tx, res, event)
	if err != nil {
		return err
	}
	if tr == nil {
		return ErrEventTransactionMissing
	}

	if event.PaymentRef != "" && tr.PaymentRef == nil {
		if err := tx.Transactions().AttachPaymentRef(ctx, tr.ID, event.PaymentRef); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}
	if err := tx.Transactions().UpdateStatus(ctx, tr.ID, status); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if status == billing.PaymentStatusPaid && (event.ReceiptURL != nil || event.CardSummary != nil) {
		if err := tx.Transactions().EnrichMetadata(ctx, tr.ID, event.ReceiptURL, event.CardSummary); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}
	return nil
}

// resolvePaymentTransaction prefers the payment-ref lookup: once a prior
// event attached the ref, redeliveries and follow-up events land on that
// exact row even when the billing carries several payment attempts. Falls
// back to the oldest open payment on the billing.
func (w *webhookCommandsImpl) resolvePaymentTransaction(
	ctx context.Context,
	tx shared.Tx,
	res *reservation.Reservation,
	event *GatewayEvent,
) (*shared.TransactionRecord, error) {
	if event.PaymentRef != "" {
		tr, err := tx.Reads().TransactionByPaymentRef(ctx, event.PaymentRef)
		if err == nil {
			if tr.Type == billing.TransactionPayment && !tr.PaymentStatus.IsTerminal() {
				return tr, nil
			}
		} else if !infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}

	bill, err := tx.Reads().BillingByReservationID(ctx, res.ID())
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	transactions, err := tx.Reads().TransactionsByBillingID(ctx, bill.ID())
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	for _, tr := range transactions {
		if tr.Type == billing.TransactionPayment && !tr.PaymentStatus.IsTerminal() {
			return tr, nil
		}
	}
	return nil, nil
}

func (w *webhookCommandsImpl) resolveReservation(ctx context.Context, tx shared.Tx, event *GatewayEvent) (*reservation.Reservation, error) {
	if event.ReservationID != uuid.Nil {
		res, err := tx.Reads().ReservationByID(ctx, event.ReservationID)
		if err == nil {
			return res, nil
		}
		if !infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}
	if event.SessionID != "" {
		res, err := tx.Reads().ReservationByCheckoutRef(ctx, event.SessionID)
		if err == nil {
			return res, nil
		}
		if !infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}
	return nil, ErrEventReservationMissing
}
