package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/clock"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/errs"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/commands"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"
)

var errUnexpectedPayloadType = errs.New("unexpected job payload type")

// Handlers binds each job name to its behavior. Every handler re-validates
// current state before acting: claims can be executed twice when a lock
// expires mid-run, and cancellation of a queued job is racy by design.
type Handlers struct {
	reservations commands.ReservationCommands
	uow          shared.UnitOfWork
	dispatcher   commands.NotificationDispatcher
	clock        clock.Clock
}

func NewHandlers(
	reservations commands.ReservationCommands,
	uow shared.UnitOfWork,
	dispatcher commands.NotificationDispatcher,
	clk clock.Clock,
) *Handlers {
	return &Handlers{
		reservations: reservations,
		uow:          uow,
		dispatcher:   dispatcher,
		clock:        clk,
	}
}

func (h *Handlers) Registry() map[shared.JobName]Handler {
	return map[shared.JobName]Handler{
		shared.JobAutoCancelReservation: h.autoCancel,
		shared.JobConfirmationNotice:    h.notifyReservation("reservation_confirmed", true),
		shared.JobReceipt:               h.notifyReservation("payment_receipt", false),
		shared.JobReviewRequest:         h.reviewRequest,
		shared.JobCancellationNotice:    h.notifyReservation("reservation_cancelled", true),
		shared.JobAccountDeletion:       h.accountDeletion,
		shared.JobResourceCleanup:       h.resourceCleanup,
	}
}

func (h *Handlers) autoCancel(ctx context.Context, payload any) error {
	p, ok := payload.(shared.ReservationJobPayload)
	if !ok {
		return errUnexpectedPayloadType
	}
	return h.reservations.SystemCancel(ctx, p.ReservationID)
}

// notifyReservation builds a handler that loads the reservation and
// dispatches the template to the guest, and to the host as well when the
// event concerns both sides. A reservation that disappeared is success:
// there is nobody left to notify.
func (h *Handlers) notifyReservation(template string, includeHost bool) Handler {
	return func(ctx context.Context, payload any) error {
		p, ok := payload.(shared.ReservationJobPayload)
		if !ok {
			return errUnexpectedPayloadType
		}

		res, err := h.uow.Reads().ReservationByID(ctx, p.ReservationID)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}

		h.dispatcher.Dispatch(ctx, buildRecipients(res, template, includeHost))
		return nil
	}
}

func (h *Handlers) reviewRequest(ctx context.Context, payload any) error {
	p, ok := payload.(shared.ReservationJobPayload)
	if !ok {
		return errUnexpectedPayloadType
	}

	res, err := h.uow.Reads().ReservationByID(ctx, p.ReservationID)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}

	// The stay may have been cancelled between scheduling and execution.
	if res.Status() != reservation.StatusComplete {
		return nil
	}

	h.dispatcher.Dispatch(ctx, buildRecipients(res, "review_request", false))
	return nil
}

func (h *Handlers) accountDeletion(ctx context.Context, payload any) error {
	p, ok := payload.(shared.AccountDeletionPayload)
	if !ok {
		return errUnexpectedPayloadType
	}

	// The account service owns the actual purge; this side only severs the
	// booking data and confirms to the user.
	slog.InfoContext(ctx, "account deletion grace period elapsed", "user_id", p.UserID)
	h.dispatcher.Dispatch(ctx, []commands.Recipient{
		{
			UserID:   p.UserID,
			Channels: []commands.NotificationChannel{commands.ChannelEmail},
			Template: "account_deleted",
		},
	})
	return nil
}

// resourceCleanup sweeps reservations that stayed open past their payment
// window and prunes the webhook event log beyond the retention horizon.
func (h *Handlers) resourceCleanup(ctx context.Context, payload any) error {
	p, ok := payload.(shared.ResourceCleanupPayload)
	if !ok {
		return errUnexpectedPayloadType
	}

	now := h.clock.Now()
	return h.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		expired, err := tx.Reservations().DeleteExpiredOpen(ctx, now)
		if err != nil {
			return err
		}

		cutoff := now.Add(-time.Duration(p.RetentionHours) * time.Hour)
		pruned, err := tx.EventLog().PruneCompleted(ctx, cutoff)
		if err != nil {
			return err
		}

		if expired > 0 || pruned > 0 {
			slog.InfoContext(ctx, "resource cleanup sweep finished",
				"expired_reservations", expired,
				"pruned_events", pruned)
		}
		return nil
	})
}

func buildRecipients(res *reservation.Reservation, template string, includeHost bool) []commands.Recipient {
	payload := map[string]any{
		"reservation_id": res.ID(),
		"property_id":    res.PropertyID(),
		"check_in":       res.DateRange().CheckIn(),
		"check_out":      res.DateRange().CheckOut(),
		"status":         string(res.Status()),
	}

	recipients := []commands.Recipient{
		{
			UserID:   res.UserID(),
			Channels: []commands.NotificationChannel{commands.ChannelEmail, commands.ChannelInApp},
			Template: template,
			Payload:  payload,
		},
	}
	if includeHost && res.HostID() != res.UserID() {
		recipients = append(recipients, commands.Recipient{
			UserID:   res.HostID(),
			Channels: []commands.NotificationChannel{commands.ChannelInApp},
			Template: template,
			Payload:  payload,
		})
	}
	return recipients
}

func isNotFound(err error) bool {
	return errors.Is(err, commands.ErrReservationNotFound) || infra.IsKind(err, infra.KindNotFound)
}
