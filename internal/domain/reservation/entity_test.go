//go:build unit

package reservation_test

import (
	"testing"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
	"github.com/mukuljibh/airbnb-backend-sub000/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservation_StartProcessing(t *testing.T) {
	now := time.Now().UTC()

	t.Run("open reservation moves to processing and drops the deadline", func(t *testing.T) {
		res := builder.NewReservationBuilder().
			WithExpiresAt(now.Add(30 * time.Minute)).
			BuildDomain()

		require.NoError(t, res.StartProcessing(now))
		assert.Equal(t, reservation.StatusProcessing, res.Status())
		assert.Nil(t, res.ExpiresAt())
	})

	t.Run("rejects non-open statuses", func(t *testing.T) {
		for _, status := range []reservation.Status{
			reservation.StatusProcessing,
			reservation.StatusAwaitingConfirmation,
			reservation.StatusComplete,
			reservation.StatusCancelled,
		} {
			res := builder.NewReservationBuilder().WithStatus(status).BuildDomain()
			assert.ErrorIs(t, res.StartProcessing(now), reservation.ErrInvalidTransition, string(status))
		}
	})

	t.Run("rejects self-booked reservations", func(t *testing.T) {
		res := builder.NewReservationBuilder().AsSelfBooked().BuildDomain()
		assert.ErrorIs(t, res.StartProcessing(now), reservation.ErrSelfBookedImmutable)
	})
}

func TestReservation_MarkPaymentCaptured(t *testing.T) {
	now := time.Now().UTC()

	t.Run("regular booking waits for the host", func(t *testing.T) {
		res := builder.NewReservationBuilder().
			WithStatus(reservation.StatusProcessing).
			BuildDomain()

		require.NoError(t, res.MarkPaymentCaptured(now))
		assert.Equal(t, reservation.StatusAwaitingConfirmation, res.Status())
		assert.Nil(t, res.ConfirmedAt())
	})

	t.Run("instant booking completes immediately", func(t *testing.T) {
		res := builder.NewReservationBuilder().
			AsInstantBooking().
			WithStatus(reservation.StatusProcessing).
			BuildDomain()

		require.NoError(t, res.MarkPaymentCaptured(now))
		assert.Equal(t, reservation.StatusComplete, res.Status())
		require.NotNil(t, res.ConfirmedAt())
		assert.Equal(t, now, *res.ConfirmedAt())
	})

	t.Run("capture arriving before checkout-started is accepted", func(t *testing.T) {
		res := builder.NewReservationBuilder().
			WithExpiresAt(now.Add(30 * time.Minute)).
			BuildDomain()

		require.NoError(t, res.MarkPaymentCaptured(now))
		assert.Equal(t, reservation.StatusAwaitingConfirmation, res.Status())
		assert.Nil(t, res.ExpiresAt())
	})

	t.Run("redelivered capture on a settled reservation fails", func(t *testing.T) {
		res := builder.NewReservationBuilder().
			WithStatus(reservation.StatusComplete).
			BuildDomain()

		assert.ErrorIs(t, res.MarkPaymentCaptured(now), reservation.ErrInvalidTransition)
	})
}

func TestReservation_HostDecision(t *testing.T) {
	now := time.Now().UTC()

	t.Run("approve completes the reservation", func(t *testing.T) {
		res := builder.NewReservationBuilder().AsAwaitingConfirmation().BuildDomain()

		require.NoError(t, res.Approve(now))
		assert.Equal(t, reservation.StatusComplete, res.Status())
		require.NotNil(t, res.HostDecision())
		assert.Equal(t, reservation.HostDecisionApproved, *res.HostDecision())
		require.NotNil(t, res.ConfirmedAt())
	})

	t.Run("reject records the decision but keeps status until the refund settles", func(t *testing.T) {
		res := builder.NewReservationBuilder().AsAwaitingConfirmation().BuildDomain()

		require.NoError(t, res.Reject(now, "double booked"))
		assert.Equal(t, reservation.StatusAwaitingConfirmation, res.Status())
		require.NotNil(t, res.HostDecision())
		assert.Equal(t, reservation.HostDecisionRejected, *res.HostDecision())
		require.NotNil(t, res.CancelReason())
		assert.Equal(t, "double booked", *res.CancelReason())
	})

	t.Run("second decision is rejected", func(t *testing.T) {
		res := builder.NewReservationBuilder().
			AsAwaitingConfirmation().
			WithHostDecision(reservation.HostDecisionRejected).
			BuildDomain()

		assert.ErrorIs(t, res.Approve(now), reservation.ErrDecisionAlreadyMade)
		assert.ErrorIs(t, res.Reject(now, "again"), reservation.ErrDecisionAlreadyMade)
	})

	t.Run("decision outside awaiting_confirmation is rejected", func(t *testing.T) {
		res := builder.NewReservationBuilder().WithStatus(reservation.StatusOpen).BuildDomain()
		assert.ErrorIs(t, res.Approve(now), reservation.ErrNotAwaitingDecision)
	})
}

func TestReservation_Cancellation(t *testing.T) {
	now := time.Now().UTC()

	t.Run("awaiting and complete reservations are cancellable", func(t *testing.T) {
		for _, status := range []reservation.Status{
			reservation.StatusAwaitingConfirmation,
			reservation.StatusComplete,
		} {
			res := builder.NewReservationBuilder().WithStatus(status).BuildDomain()
			assert.NoError(t, res.ValidateCancellable(now), string(status))
		}
	})

	t.Run("open and processing reservations are not", func(t *testing.T) {
		for _, status := range []reservation.Status{
			reservation.StatusOpen,
			reservation.StatusProcessing,
		} {
			res := builder.NewReservationBuilder().WithStatus(status).BuildDomain()
			assert.ErrorIs(t, res.ValidateCancellable(now), reservation.ErrNotCancellable, string(status))
		}
	})

	t.Run("cancelled reservation reports already cancelled", func(t *testing.T) {
		res := builder.NewReservationBuilder().WithStatus(reservation.StatusCancelled).BuildDomain()
		assert.ErrorIs(t, res.ValidateCancellable(now), reservation.ErrAlreadyCancelled)
	})

	t.Run("cancellation after check-in is rejected", func(t *testing.T) {
		checkIn := reservation.TruncateToDate(now).AddDate(0, 0, -2)
		res := builder.NewReservationBuilder().
			WithDates(checkIn, checkIn.AddDate(0, 0, 5)).
			WithStatus(reservation.StatusComplete).
			BuildDomain()

		assert.ErrorIs(t, res.ValidateCancellable(now), reservation.ErrCheckInPassed)
	})

	t.Run("MarkCancelled records origin and reason", func(t *testing.T) {
		reason := "changed plans"
		res := builder.NewReservationBuilder().WithStatus(reservation.StatusComplete).BuildDomain()

		require.NoError(t, res.MarkCancelled(reservation.CancelledByGuest, &reason, now))
		assert.Equal(t, reservation.StatusCancelled, res.Status())
		require.NotNil(t, res.CancelledBy())
		assert.Equal(t, reservation.CancelledByGuest, *res.CancelledBy())
		require.NotNil(t, res.CancelReason())
		assert.Equal(t, reason, *res.CancelReason())
		require.NotNil(t, res.CancelledAt())
	})

	t.Run("MarkCancelled is rejected twice", func(t *testing.T) {
		res := builder.NewReservationBuilder().WithStatus(reservation.StatusCancelled).BuildDomain()
		assert.ErrorIs(t, res.MarkCancelled(reservation.CancelledBySystem, nil, now), reservation.ErrAlreadyCancelled)
	})

	t.Run("invalid cancellation origin is rejected", func(t *testing.T) {
		res := builder.NewReservationBuilder().WithStatus(reservation.StatusComplete).BuildDomain()
		assert.ErrorIs(t, res.MarkCancelled(reservation.CancelledBy("robot"), nil, now), reservation.ErrInvalidCancelledBy)
	})
}

func TestReservation_AttachCheckout(t *testing.T) {
	now := time.Now().UTC()

	t.Run("attaches session on an open reservation", func(t *testing.T) {
		res := builder.NewReservationBuilder().BuildDomain()

		require.NoError(t, res.AttachCheckout("cs_test_123", "https://pay.example/cs_test_123", now))
		require.NotNil(t, res.CheckoutRef())
		assert.Equal(t, "cs_test_123", *res.CheckoutRef())
		require.NotNil(t, res.PaymentLink())
		assert.Equal(t, "https://pay.example/cs_test_123", *res.PaymentLink())
	})

	t.Run("rejected once checkout started", func(t *testing.T) {
		res := builder.NewReservationBuilder().WithStatus(reservation.StatusProcessing).BuildDomain()
		assert.ErrorIs(t, res.AttachCheckout("cs", "url", now), reservation.ErrInvalidTransition)
	})
}

func TestReservation_HasExpired(t *testing.T) {
	now := time.Now().UTC()

	t.Run("open past deadline", func(t *testing.T) {
		res := builder.NewReservationBuilder().WithExpiresAt(now.Add(-time.Minute)).BuildDomain()
		assert.True(t, res.HasExpired(now))
	})

	t.Run("open within deadline", func(t *testing.T) {
		res := builder.NewReservationBuilder().WithExpiresAt(now.Add(time.Minute)).BuildDomain()
		assert.False(t, res.HasExpired(now))
	})

	t.Run("non-open never expires", func(t *testing.T) {
		res := builder.NewReservationBuilder().
			WithStatus(reservation.StatusProcessing).
			WithExpiresAt(now.Add(-time.Minute)).
			BuildDomain()
		assert.False(t, res.HasExpired(now))
	})
}
