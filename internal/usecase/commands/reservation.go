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
	ErrPropertyNotFound    = errs.New("property not found")
	ErrReservationNotFound = errs.New("reservation not found")
	ErrDateRangeConflict   = errs.New("dates conflict with an existing reservation")
	ErrForbidden           = errs.New("actor may not act on this reservation")
	ErrNoPaymentLink       = errs.New("reservation has no open payment link")
	ErrNothingToRefund     = errs.New("no captured payment to refund")

	// Error markers for categorization
	ErrDomainValidation        = errs.New("domain validation error")
	ErrGatewayFailure          = errs.New("payment gateway failure")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

type CreateReservationInput struct {
	CheckIn   time.Time
	CheckOut  time.Time
	PartySize int
	PromoCode *string
	Currency  string
}

type SelfBlockInput struct {
	CheckIn  time.Time
	CheckOut time.Time
}

type CreateReservationResult struct {
	ReservationID uuid.UUID
	BillingID     uuid.UUID
	SessionID     string
	SessionURL    string
	TotalPrice    int64
	Currency      string
	ExpiresAt     time.Time
}

type HostDecisionInput struct {
	Decision reservation.HostDecision
	Reason   string
}

type ReservationCommands interface {
	CreateReservation(ctx context.Context, actor shared.Actor, propertyID uuid.UUID, in CreateReservationInput) (*CreateReservationResult, error)
	SelfBlock(ctx context.Context, actor shared.Actor, propertyID uuid.UUID, in SelfBlockInput) (uuid.UUID, error)
	RetrievePaymentLink(ctx context.Context, actor shared.Actor, reservationID uuid.UUID) (string, error)
	Cancel(ctx context.Context, actor shared.Actor, reservationID uuid.UUID, reason *string) error
	RecordHostDecision(ctx context.Context, actor shared.Actor, reservationID uuid.UUID, in HostDecisionInput) error
	// SystemCancel is the auto-cancel job's entry point. It re-checks the
	// reservation state and becomes a no-op if the host already decided.
	SystemCancel(ctx context.Context, reservationID uuid.UUID) error
}

type reservationCommandsImpl struct {
	uow     shared.UnitOfWork
	factory *reservation.Factory
	pricing PricingEngine
	gateway PaymentGateway
	cfg     config.ReservationConfig
	tag     string
	clock   clock.Clock
}

func NewReservationCommands(
	uow shared.UnitOfWork,
	factory *reservation.Factory,
	pricing PricingEngine,
	gateway PaymentGateway,
	cfg config.ReservationConfig,
	stripeCfg config.StripeConfig,
	clock clock.Clock,
) ReservationCommands {
	return &reservationCommandsImpl{
		uow:     uow,
		factory: factory,
		pricing: pricing,
		gateway: gateway,
		cfg:     cfg,
		tag:     stripeCfg.InstanceTag,
		clock:   clock,
	}
}

func (c *reservationCommandsImpl) CreateReservation(
	ctx context.Context,
	actor shared.Actor,
	propertyID uuid.UUID,
	in CreateReservationInput,
) (*CreateReservationResult, error) {
	property, err := c.loadProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	dateRange, err := reservation.NewDateRange(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}
	partySize, err := reservation.NewPartySize(in.PartySize)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	res, err := c.factory.CreateReservation(propertySpec(property), actor.UserID, dateRange, partySize)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	currency := in.Currency
	if currency == "" {
		currency = property.Currency
	}
	breakdown, err := c.pricing.Quote(property, dateRange, partySize, in.PromoCode, currency)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	bill, err := billing.NewBilling(res.ID(), breakdown, c.clock.Now())
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Reservations().Create(ctx, res); err != nil {
			if infra.IsKind(err, infra.KindConflict) || infra.IsKind(err, infra.KindDuplicateKey) {
				return ErrDateRangeConflict
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return tx.Billings().Create(ctx, bill)
	})
	if err != nil {
		return nil, err
	}

	// The gateway call stays outside the transaction. If it fails the
	// reservation stays open and the payment-window sweep reclaims it.
	session, err := c.gateway.CreateCheckoutSession(ctx, bill, res, c.tag)
	if err != nil {
		return nil, errs.Mark(err, ErrGatewayFailure)
	}

	if err := res.AttachCheckout(session.SessionID, session.URL, c.clock.Now()); err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Reservations().Save(ctx, res); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return tx.Transactions().Create(ctx, &shared.TransactionRecord{
			ID:            uuid.New(),
			BillingID:     bill.ID(),
			ReservationID: res.ID(),
			Type:          billing.TransactionPayment,
			PaymentStatus: billing.PaymentStatusOpen,
			Amount:        bill.TotalPrice(),
			Currency:      bill.Currency(),
			CreatedAt:     c.clock.Now(),
			UpdatedAt:     c.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	return &CreateReservationResult{
		ReservationID: res.ID(),
		BillingID:     bill.ID(),
		SessionID:     session.SessionID,
		SessionURL:    session.URL,
		TotalPrice:    bill.TotalPrice(),
		Currency:      bill.Currency(),
		ExpiresAt:     *res.ExpiresAt(),
	}, nil
}

func (c *reservationCommandsImpl) SelfBlock(
	ctx context.Context,
	actor shared.Actor,
	propertyID uuid.UUID,
	in SelfBlockInput,
) (uuid.UUID, error) {
	property, err := c.loadProperty(ctx, propertyID)
	if err != nil {
		return uuid.Nil, err
	}

	dateRange, err := reservation.NewDateRange(in.CheckIn, in.CheckOut)
	if err != nil {
		return uuid.Nil, errs.Mark(err, ErrDomainValidation)
	}

	res, err := c.factory.CreateSelfBooking(propertySpec(property), actor.UserID, dateRange)
	if err != nil {
		return uuid.Nil, errs.Mark(err, ErrDomainValidation)
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Reservations().Create(ctx, res); err != nil {
			if infra.IsKind(err, infra.KindConflict) || infra.IsKind(err, infra.KindDuplicateKey) {
				return ErrDateRangeConflict
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return res.ID(), nil
}

func (c *reservationCommandsImpl) RetrievePaymentLink(
	ctx context.Context,
	actor shared.Actor,
	reservationID uuid.UUID,
) (string, error) {
	res, err := c.loadReservation(ctx, reservationID)
	if err != nil {
		return "", err
	}
	if res.UserID() != actor.UserID && !actor.IsAdmin() {
		return "", ErrForbidden
	}
	if res.Status() != reservation.StatusOpen || res.PaymentLink() == nil {
		return "", ErrNoPaymentLink
	}
	return *res.PaymentLink(), nil
}

func (c *reservationCommandsImpl) Cancel(
	ctx context.Context,
	actor shared.Actor,
	reservationID uuid.UUID,
	reason *string,
) error {
	res, err := c.loadReservation(ctx, reservationID)
	if err != nil {
		return err
	}

	var by reservation.CancelledBy
	switch {
	case actor.UserID == res.UserID():
		by = reservation.CancelledByGuest
	case actor.UserID == res.HostID():
		by = reservation.CancelledByHost
	case actor.IsAdmin():
		by = reservation.CancelledBySystem
	default:
		return ErrForbidden
	}

	if err := res.ValidateCancellable(c.clock.Now()); err != nil {
		return errs.Mark(err, ErrDomainValidation)
	}

	// Self-booked stays never touched the gateway; cancel settles inline.
	// The aggregate is re-read inside the transaction so a retried or racing
	// closure starts from persisted state, not the copy validated above.
	if res.IsSelfBooked() {
		return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			fresh, err := tx.Reads().ReservationByID(ctx, res.ID())
			if err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
			if err := fresh.MarkCancelled(by, reason, c.clock.Now()); err != nil {
				return errs.Mark(err, ErrDomainValidation)
			}
			return tx.Reservations().Save(ctx, fresh)
		})
	}

	reasonText := ""
	if reason != nil {
		reasonText = *reason
	}
	return c.requestRefunds(ctx, res, by, reasonText)
}

func (c *reservationCommandsImpl) RecordHostDecision(
	ctx context.Context,
	actor shared.Actor,
	reservationID uuid.UUID,
	in HostDecisionInput,
) error {
	if !in.Decision.IsValid() {
		return errs.Mark(reservation.ErrInvalidHostDecision, ErrDomainValidation)
	}

	res, err := c.loadReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	if res.HostID() != actor.UserID && !actor.IsAdmin() {
		return ErrForbidden
	}

	// Each transaction attempt re-reads the aggregate: a serialization retry
	// or a racing command must see the decision the store actually holds.
	if in.Decision == reservation.HostDecisionApproved {
		return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			fresh, err := tx.Reads().ReservationByID(ctx, res.ID())
			if err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
			if err := fresh.Approve(c.clock.Now()); err != nil {
				return errs.Mark(err, ErrDomainValidation)
			}
			if err := tx.Reservations().Save(ctx, fresh); err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
			// The pending auto-cancel must not fire after an approval. A
			// copy already claimed by a runner re-checks status and no-ops.
			if _, err := tx.Jobs().CancelPending(ctx, shared.JobAutoCancelReservation, res.ID()); err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
			return enqueueReservationJob(ctx, tx, shared.JobConfirmationNotice, res.ID(), c.clock.Now(), nil)
		})
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		fresh, err := tx.Reads().ReservationByID(ctx, res.ID())
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := fresh.Reject(c.clock.Now(), in.Reason); err != nil {
			return errs.Mark(err, ErrDomainValidation)
		}
		return tx.Reservations().Save(ctx, fresh)
	})
	if err != nil {
		return err
	}

	return c.requestRefunds(ctx, res, reservation.CancelledByHost, in.Reason)
}

func (c *reservationCommandsImpl) SystemCancel(ctx context.Context, reservationID uuid.UUID) error {
	res, err := c.loadReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) {
			return nil
		}
		return err
	}

	if !res.RequiresHostDecision() {
		slog.Info("auto-cancel skipped, reservation no longer awaiting confirmation",
			"reservation_id", reservationID, "status", res.Status().String())
		return nil
	}

	return c.requestRefunds(ctx, res, reservation.CancelledBySystem, "host confirmation window elapsed")
}

// requestRefunds issues a gateway refund for every captured payment and
// records processing REFUND rows. The reservation itself transitions to
// cancelled only when the refund-settled webhook arrives.
func (c *reservationCommandsImpl) requestRefunds(
	ctx context.Context,
	res *reservation.Reservation,
	by reservation.CancelledBy,
	reason string,
) error {
	bill, err := c.uow.Reads().BillingByReservationID(ctx, res.ID())
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	transactions, err := c.uow.Reads().TransactionsByBillingID(ctx, bill.ID())
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	// A payment is only refunded once: any existing non-failed REFUND row
	// already reverses it, whether still processing or settled. This keeps a
	// repeated Cancel, or the auto-cancel job racing a manual cancel, from
	// issuing a second real-money refund at the gateway.
	reversed := make(map[uuid.UUID]struct{})
	for _, tr := range transactions {
		if tr.Type == billing.TransactionRefund && tr.PaymentStatus != billing.PaymentStatusFailed && tr.ReversesID != nil {
			reversed[*tr.ReversesID] = struct{}{}
		}
	}

	type pendingRefund struct {
		payment   *shared.TransactionRecord
		refundRef string
	}
	var refunds []pendingRefund
	var alreadyPending int
	for _, tr := range transactions {
		if tr.Type != billing.TransactionPayment || tr.PaymentStatus != billing.PaymentStatusPaid || tr.PaymentRef == nil {
			continue
		}
		if _, ok := reversed[tr.ID]; ok {
			alreadyPending++
			continue
		}
		refundRef, err := c.gateway.CreateRefund(ctx, RefundRequest{
			PaymentRef:    *tr.PaymentRef,
			Amount:        tr.Amount,
			Currency:      tr.Currency,
			ReservationID: res.ID(),
			CancelledBy:   by.String(),
			Reason:        reason,
		})
		if err != nil {
			return errs.Mark(err, ErrGatewayFailure)
		}
		refunds = append(refunds, pendingRefund{payment: tr, refundRef: refundRef})
	}

	if len(refunds) == 0 {
		if alreadyPending > 0 {
			slog.Info("cancellation already in flight, no new refunds issued",
				"reservation_id", res.ID(), "pending_refunds", alreadyPending)
			return nil
		}
		return ErrNothingToRefund
	}

	now := c.clock.Now()
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		bill, err := tx.Reads().BillingByReservationID(ctx, res.ID())
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		bill.FlagRefunds(now)
		if err := tx.Billings().Save(ctx, bill); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		// The confirmation-window auto-cancel is moot once cancellation is
		// requested; pulling it here keeps it from re-walking this path.
		if _, err := tx.Jobs().CancelPending(ctx, shared.JobAutoCancelReservation, res.ID()); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		for _, r := range refunds {
			paymentID := r.payment.ID
			refundRef := r.refundRef
			record := &shared.TransactionRecord{
				ID:            uuid.New(),
				BillingID:     bill.ID(),
				ReservationID: res.ID(),
				Type:          billing.TransactionRefund,
				PaymentStatus: billing.PaymentStatusProcessing,
				Amount:        r.payment.Amount,
				Currency:      r.payment.Currency,
				PaymentRef:    r.payment.PaymentRef,
				RefundRef:     &refundRef,
				ReversesID:    &paymentID,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Transactions().Create(ctx, record); err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
		}
		return nil
	})
}

func (c *reservationCommandsImpl) loadProperty(ctx context.Context, id uuid.UUID) (*shared.PropertySnapshot, error) {
	property, err := c.uow.Reads().PropertyByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return property, nil
}

func (c *reservationCommandsImpl) loadReservation(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	res, err := c.uow.Reads().ReservationByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return res, nil
}

func propertySpec(p *shared.PropertySnapshot) reservation.PropertySpec {
	return reservation.PropertySpec{
		ID:               p.ID,
		HostID:           p.HostID,
		MaxGuests:        p.MaxGuests,
		IsInstantBooking: p.IsInstantBooking,
	}
}

func enqueueReservationJob(
	ctx context.Context,
	tx shared.Tx,
	name shared.JobName,
	reservationID uuid.UUID,
	runAt time.Time,
	recurEvery *time.Duration,
) error {
	payload, err := shared.MarshalJobPayload(shared.ReservationJobPayload{ReservationID: reservationID})
	if err != nil {
		return err
	}
	return tx.Jobs().Enqueue(ctx, &shared.JobRecord{
		ID:         uuid.New(),
		Name:       name,
		Payload:    payload,
		RunAt:      runAt,
		RecurEvery: recurEvery,
		Status:     shared.JobQueued,
		CreatedAt:  runAt,
		UpdatedAt:  runAt,
	})
}
