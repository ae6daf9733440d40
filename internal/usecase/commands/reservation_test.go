//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/billing"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/clock"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/config"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/commands"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"
	"github.com/mukuljibh/airbnb-backend-sub000/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type stubPricing struct {
	breakdown billing.PriceBreakdown
	err       error
}

func (p *stubPricing) Quote(property *shared.PropertySnapshot, dateRange reservation.DateRange, partySize reservation.PartySize, promoCode *string, targetCurrency string) (billing.PriceBreakdown, error) {
	return p.breakdown, p.err
}

type stubGateway struct {
	session    *commands.CheckoutSession
	sessionErr error

	refundRequests []commands.RefundRequest
	refundRefs     []string
	refundErr      error
}

func (g *stubGateway) CreateCheckoutSession(ctx context.Context, b *billing.Billing, res *reservation.Reservation, instanceTag string) (*commands.CheckoutSession, error) {
	return g.session, g.sessionErr
}

func (g *stubGateway) CreateRefund(ctx context.Context, req commands.RefundRequest) (string, error) {
	if g.refundErr != nil {
		return "", g.refundErr
	}
	g.refundRequests = append(g.refundRequests, req)
	ref := g.refundRefs[len(g.refundRequests)-1]
	return ref, nil
}

func (g *stubGateway) VerifyWebhook(payload []byte, signature string) (*commands.GatewayEvent, error) {
	return nil, errors.New("not used")
}

func (g *stubGateway) VerifyConnectWebhook(payload []byte, signature string) (*commands.GatewayEvent, error) {
	return nil, errors.New("not used")
}

type ReservationCommandsSuite struct {
	suite.Suite

	store    *fakeStore
	clock    *clock.MockClock
	pricing  *stubPricing
	gateway  *stubGateway
	commands commands.ReservationCommands
	now      time.Time
}

func TestReservationCommandsSuite(t *testing.T) {
	suite.Run(t, new(ReservationCommandsSuite))
}

func (s *ReservationCommandsSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.store = newFakeStore()
	s.clock = clock.NewMockClock(s.now)
	s.pricing = &stubPricing{breakdown: builder.NewReservationBuilder().BuildBreakdown()}
	s.gateway = &stubGateway{
		session:    &commands.CheckoutSession{SessionID: "cs_test_1", URL: "https://pay.example/cs_test_1"},
		refundRefs: []string{"re_test_1", "re_test_2"},
	}

	cfg := config.ReservationConfig{
		PaymentWindow:      30 * time.Minute,
		ConfirmationWindow: time.Hour,
		ReceiptDelay:       5 * time.Minute,
		CancelNotifyDelay:  2 * time.Minute,
	}
	factory := reservation.NewFactory(s.clock, cfg.PaymentWindow)
	s.commands = commands.NewReservationCommands(
		s.store, factory, s.pricing, s.gateway,
		cfg, config.StripeConfig{InstanceTag: "test-instance"}, s.clock,
	)
}

func (s *ReservationCommandsSuite) seedProperty(b *builder.ReservationBuilder) *shared.PropertySnapshot {
	snap := b.BuildPropertySnapshot()
	s.store.properties[snap.ID] = snap
	return snap
}

func (s *ReservationCommandsSuite) createInput(b *builder.ReservationBuilder) commands.CreateReservationInput {
	return commands.CreateReservationInput{
		CheckIn:   b.CheckIn,
		CheckOut:  b.CheckOut,
		PartySize: b.PartySize,
	}
}

func (s *ReservationCommandsSuite) TestCreateReservation() {
	s.Run("creates reservation, billing, and an open payment transaction", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedProperty(b)
		guest := shared.Actor{UserID: b.UserID, Role: shared.RoleGuest}

		result, err := s.commands.CreateReservation(context.Background(), guest, b.PropertyID, s.createInput(b))
		s.Require().NoError(err)

		s.Equal("cs_test_1", result.SessionID)
		s.Equal("https://pay.example/cs_test_1", result.SessionURL)
		s.Equal(s.now.Add(30*time.Minute), result.ExpiresAt)

		stored := s.store.reservations[result.ReservationID]
		s.Require().NotNil(stored)
		s.Equal(reservation.StatusOpen, stored.Status())
		s.Require().NotNil(stored.CheckoutRef())
		s.Equal("cs_test_1", *stored.CheckoutRef())

		bill := s.store.billings[result.BillingID]
		s.Require().NotNil(bill)
		s.Equal(result.TotalPrice, bill.TotalPrice())

		s.Require().Len(s.store.transactions, 1)
		for _, tr := range s.store.transactions {
			s.Equal(billing.TransactionPayment, tr.Type)
			s.Equal(billing.PaymentStatusOpen, tr.PaymentStatus)
			s.Equal(bill.TotalPrice(), tr.Amount)
		}
	})

	s.Run("unknown property", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		guest := shared.Actor{UserID: b.UserID, Role: shared.RoleGuest}

		_, err := s.commands.CreateReservation(context.Background(), guest, b.PropertyID, s.createInput(b))
		s.Require().ErrorIs(err, commands.ErrPropertyNotFound)
	})

	s.Run("host booking their own property", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedProperty(b)
		host := shared.Actor{UserID: b.HostID, Role: shared.RoleHost}

		_, err := s.commands.CreateReservation(context.Background(), host, b.PropertyID, s.createInput(b))
		s.Require().ErrorIs(err, commands.ErrDomainValidation)
		s.ErrorIs(err, reservation.ErrHostCannotBookOwn)
	})

	s.Run("gateway failure leaves the reservation open for the sweep", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedProperty(b)
		s.gateway.session = nil
		s.gateway.sessionErr = errors.New("stripe: 500")
		guest := shared.Actor{UserID: b.UserID, Role: shared.RoleGuest}

		_, err := s.commands.CreateReservation(context.Background(), guest, b.PropertyID, s.createInput(b))
		s.Require().ErrorIs(err, commands.ErrGatewayFailure)

		// Reservation and billing persisted; no payment transaction yet.
		s.Len(s.store.reservations, 1)
		s.Len(s.store.billings, 1)
		s.Empty(s.store.transactions)
		for _, res := range s.store.reservations {
			s.Require().NotNil(res.ExpiresAt())
			s.True(res.HasExpired(s.now.Add(31 * time.Minute)))
		}
	})

	s.Run("overlap exclusion from the store surfaces as a date conflict", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedProperty(b)
		s.store.createResErr = infra.WrapRepoErr("dates overlap an existing reservation", nil, infra.KindConflict)
		guest := shared.Actor{UserID: b.UserID, Role: shared.RoleGuest}

		_, err := s.commands.CreateReservation(context.Background(), guest, b.PropertyID, s.createInput(b))
		s.Require().ErrorIs(err, commands.ErrDateRangeConflict)
		s.Empty(s.store.reservations)
	})
}

func (s *ReservationCommandsSuite) TestSelfBlock() {
	s.Run("host blocks their calendar without billing", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedProperty(b)
		host := shared.Actor{UserID: b.HostID, Role: shared.RoleHost}

		id, err := s.commands.SelfBlock(context.Background(), host, b.PropertyID, commands.SelfBlockInput{
			CheckIn:  b.CheckIn,
			CheckOut: b.CheckOut,
		})
		s.Require().NoError(err)

		stored := s.store.reservations[id]
		s.Require().NotNil(stored)
		s.True(stored.IsSelfBooked())
		s.Equal(reservation.StatusComplete, stored.Status())
		s.Empty(s.store.billings)
		s.Empty(s.store.transactions)
	})

	s.Run("guest cannot block someone else's calendar", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedProperty(b)
		guest := shared.Actor{UserID: b.UserID, Role: shared.RoleGuest}

		_, err := s.commands.SelfBlock(context.Background(), guest, b.PropertyID, commands.SelfBlockInput{
			CheckIn:  b.CheckIn,
			CheckOut: b.CheckOut,
		})
		s.Require().ErrorIs(err, commands.ErrDomainValidation)
		s.ErrorIs(err, reservation.ErrOnlyHostCanSelfBook)
	})
}

func (s *ReservationCommandsSuite) TestRetrievePaymentLink() {
	s.Run("owner retrieves the open link", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder().WithCheckout("cs_1", "https://pay.example/cs_1")
		s.store.addReservation(b.BuildDomain())
		guest := shared.Actor{UserID: b.UserID, Role: shared.RoleGuest}

		link, err := s.commands.RetrievePaymentLink(context.Background(), guest, b.ID)
		s.Require().NoError(err)
		s.Equal("https://pay.example/cs_1", link)
	})

	s.Run("another user is rejected", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder().WithCheckout("cs_1", "https://pay.example/cs_1")
		s.store.addReservation(b.BuildDomain())
		stranger := shared.Actor{UserID: uuid.New(), Role: shared.RoleGuest}

		_, err := s.commands.RetrievePaymentLink(context.Background(), stranger, b.ID)
		s.Require().ErrorIs(err, commands.ErrForbidden)
	})

	s.Run("no link once checkout started", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder().
			WithCheckout("cs_1", "https://pay.example/cs_1").
			WithStatus(reservation.StatusProcessing)
		s.store.addReservation(b.BuildDomain())
		guest := shared.Actor{UserID: b.UserID, Role: shared.RoleGuest}

		_, err := s.commands.RetrievePaymentLink(context.Background(), guest, b.ID)
		s.Require().ErrorIs(err, commands.ErrNoPaymentLink)
	})
}

// seedPaidReservation installs a paid reservation with billing and a settled
// payment transaction, ready to be cancelled.
func (s *ReservationCommandsSuite) seedPaidReservation(b *builder.ReservationBuilder, status reservation.Status) *shared.TransactionRecord {
	res := b.WithStatus(status).BuildDomain()
	bill, err := b.BuildBilling()
	s.Require().NoError(err)
	s.Require().NoError(bill.ApplyPayment(bill.TotalPrice(), s.now))

	paymentRef := "pi_test_1"
	tr := &shared.TransactionRecord{
		ID:            uuid.New(),
		BillingID:     bill.ID(),
		ReservationID: res.ID(),
		Type:          billing.TransactionPayment,
		PaymentStatus: billing.PaymentStatusPaid,
		Amount:        bill.TotalPrice(),
		Currency:      bill.Currency(),
		PaymentRef:    &paymentRef,
		CreatedAt:     s.now,
		UpdatedAt:     s.now,
	}

	s.store.addReservation(res)
	s.store.addBilling(bill)
	s.store.addTransaction(tr)
	return tr
}

func (s *ReservationCommandsSuite) seedAutoCancelJob(reservationID uuid.UUID) {
	payload, err := shared.MarshalJobPayload(shared.ReservationJobPayload{ReservationID: reservationID})
	s.Require().NoError(err)
	s.Require().NoError(fakeJobRepo{s.store}.Enqueue(context.Background(), &shared.JobRecord{
		ID:      uuid.New(),
		Name:    shared.JobAutoCancelReservation,
		Payload: payload,
		RunAt:   s.now.Add(time.Hour),
		Status:  shared.JobQueued,
	}))
}

func (s *ReservationCommandsSuite) countRefundRows() int {
	var n int
	for _, tr := range s.store.transactions {
		if tr.Type == billing.TransactionRefund {
			n++
		}
	}
	return n
}

func (s *ReservationCommandsSuite) TestCancel() {
	s.Run("guest cancellation requests a refund and waits for settlement", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		payment := s.seedPaidReservation(b, reservation.StatusComplete)
		guest := shared.Actor{UserID: b.UserID, Role: shared.RoleGuest}
		reason := "plans changed"

		s.Require().NoError(s.commands.Cancel(context.Background(), guest, b.ID, &reason))

		// Refund requested with the initiator in the metadata.
		s.Require().Len(s.gateway.refundRequests, 1)
		req := s.gateway.refundRequests[0]
		s.Equal("pi_test_1", req.PaymentRef)
		s.Equal("guest", req.CancelledBy)
		s.Equal("plans changed", req.Reason)

		// Not cancelled yet; the refund-settled webhook does that.
		s.Equal(reservation.StatusComplete, s.store.reservations[b.ID].Status())

		var refundRows int
		for _, tr := range s.store.transactions {
			if tr.Type == billing.TransactionRefund {
				refundRows++
				s.Equal(billing.PaymentStatusProcessing, tr.PaymentStatus)
				s.Require().NotNil(tr.ReversesID)
				s.Equal(payment.ID, *tr.ReversesID)
				s.Require().NotNil(tr.RefundRef)
				s.Equal("re_test_1", *tr.RefundRef)
			}
		}
		s.Equal(1, refundRows)

		for _, bill := range s.store.billings {
			s.True(bill.HasRefunds())
			s.Zero(bill.TotalRefunded())
		}
	})

	s.Run("host cancellation is attributed to the host", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedPaidReservation(b, reservation.StatusAwaitingConfirmation)
		host := shared.Actor{UserID: b.HostID, Role: shared.RoleHost}

		s.Require().NoError(s.commands.Cancel(context.Background(), host, b.ID, nil))
		s.Require().Len(s.gateway.refundRequests, 1)
		s.Equal("host", s.gateway.refundRequests[0].CancelledBy)
	})

	s.Run("stranger is rejected", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedPaidReservation(b, reservation.StatusComplete)
		stranger := shared.Actor{UserID: uuid.New(), Role: shared.RoleGuest}

		s.Require().ErrorIs(s.commands.Cancel(context.Background(), stranger, b.ID, nil), commands.ErrForbidden)
	})

	s.Run("open reservation cannot be cancelled", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.store.addReservation(b.BuildDomain())
		guest := shared.Actor{UserID: b.UserID, Role: shared.RoleGuest}

		err := s.commands.Cancel(context.Background(), guest, b.ID, nil)
		s.Require().ErrorIs(err, commands.ErrDomainValidation)
		s.ErrorIs(err, reservation.ErrNotCancellable)
	})

	s.Run("nothing captured means nothing to refund", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		res := b.WithStatus(reservation.StatusComplete).BuildDomain()
		bill, err := b.BuildBilling()
		s.Require().NoError(err)
		s.store.addReservation(res)
		s.store.addBilling(bill)
		guest := shared.Actor{UserID: b.UserID, Role: shared.RoleGuest}

		s.Require().ErrorIs(s.commands.Cancel(context.Background(), guest, b.ID, nil), commands.ErrNothingToRefund)
	})

	s.Run("repeated cancellation issues exactly one refund", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedPaidReservation(b, reservation.StatusAwaitingConfirmation)
		s.seedAutoCancelJob(b.ID)
		guest := shared.Actor{UserID: b.UserID, Role: shared.RoleGuest}

		s.Require().NoError(s.commands.Cancel(context.Background(), guest, b.ID, nil))
		s.Require().Len(s.gateway.refundRequests, 1)
		s.Equal(1, s.countRefundRows())

		// The confirmation-window auto-cancel is pulled when the refund is
		// requested, not when it settles.
		s.NotContains(s.store.jobNames(), shared.JobAutoCancelReservation)

		// An impatient second cancel is absorbed without touching the gateway.
		s.Require().NoError(s.commands.Cancel(context.Background(), guest, b.ID, nil))
		s.Len(s.gateway.refundRequests, 1)
		s.Equal(1, s.countRefundRows())

		// And so is the auto-cancel job firing off a stale claim.
		s.Require().NoError(s.commands.SystemCancel(context.Background(), b.ID))
		s.Len(s.gateway.refundRequests, 1)
		s.Equal(1, s.countRefundRows())
	})

	s.Run("self-booked block settles inline", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder().AsSelfBooked()
		s.store.addReservation(b.BuildDomain())
		host := shared.Actor{UserID: b.HostID, Role: shared.RoleHost}

		s.Require().NoError(s.commands.Cancel(context.Background(), host, b.ID, nil))

		stored := s.store.reservations[b.ID]
		s.Equal(reservation.StatusCancelled, stored.Status())
		s.Require().NotNil(stored.CancelledBy())
		s.Equal(reservation.CancelledByHost, *stored.CancelledBy())
		s.Empty(s.gateway.refundRequests)
	})

	s.Run("self-booked cancel survives a transaction retry", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder().AsSelfBooked()
		s.store.addReservation(b.BuildDomain())
		s.store.retries = 1
		host := shared.Actor{UserID: b.HostID, Role: shared.RoleHost}

		s.Require().NoError(s.commands.Cancel(context.Background(), host, b.ID, nil))
		s.Equal(reservation.StatusCancelled, s.store.reservations[b.ID].Status())
	})
}

func (s *ReservationCommandsSuite) TestRecordHostDecision() {
	s.Run("approval completes and swaps the auto-cancel for a notice", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedPaidReservation(b, reservation.StatusAwaitingConfirmation)
		s.seedAutoCancelJob(b.ID)

		host := shared.Actor{UserID: b.HostID, Role: shared.RoleHost}
		s.Require().NoError(s.commands.RecordHostDecision(context.Background(), host, b.ID, commands.HostDecisionInput{
			Decision: reservation.HostDecisionApproved,
		}))

		stored := s.store.reservations[b.ID]
		s.Equal(reservation.StatusComplete, stored.Status())
		s.ElementsMatch([]shared.JobName{shared.JobConfirmationNotice}, s.store.jobNames())
		s.Empty(s.gateway.refundRequests)
	})

	s.Run("rejection records the decision and requests the refund", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedPaidReservation(b, reservation.StatusAwaitingConfirmation)
		host := shared.Actor{UserID: b.HostID, Role: shared.RoleHost}

		s.Require().NoError(s.commands.RecordHostDecision(context.Background(), host, b.ID, commands.HostDecisionInput{
			Decision: reservation.HostDecisionRejected,
			Reason:   "double booked",
		}))

		stored := s.store.reservations[b.ID]
		s.Equal(reservation.StatusAwaitingConfirmation, stored.Status())
		s.Require().NotNil(stored.HostDecision())
		s.Equal(reservation.HostDecisionRejected, *stored.HostDecision())

		s.Require().Len(s.gateway.refundRequests, 1)
		s.Equal("host", s.gateway.refundRequests[0].CancelledBy)
		s.Equal("double booked", s.gateway.refundRequests[0].Reason)
	})

	s.Run("non-host is rejected", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedPaidReservation(b, reservation.StatusAwaitingConfirmation)
		guest := shared.Actor{UserID: b.UserID, Role: shared.RoleGuest}

		err := s.commands.RecordHostDecision(context.Background(), guest, b.ID, commands.HostDecisionInput{
			Decision: reservation.HostDecisionApproved,
		})
		s.Require().ErrorIs(err, commands.ErrForbidden)
	})

	s.Run("approval survives a transaction retry", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedPaidReservation(b, reservation.StatusAwaitingConfirmation)
		s.store.retries = 1
		host := shared.Actor{UserID: b.HostID, Role: shared.RoleHost}

		// Each closure attempt re-reads the persisted aggregate, so the
		// replay after an aborted attempt does not trip on in-memory state.
		s.Require().NoError(s.commands.RecordHostDecision(context.Background(), host, b.ID, commands.HostDecisionInput{
			Decision: reservation.HostDecisionApproved,
		}))
		s.Equal(reservation.StatusComplete, s.store.reservations[b.ID].Status())
		s.ElementsMatch([]shared.JobName{shared.JobConfirmationNotice}, s.store.jobNames())
	})

	s.Run("invalid decision value", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		host := shared.Actor{UserID: b.HostID, Role: shared.RoleHost}

		err := s.commands.RecordHostDecision(context.Background(), host, b.ID, commands.HostDecisionInput{
			Decision: reservation.HostDecision("maybe"),
		})
		s.Require().ErrorIs(err, commands.ErrDomainValidation)
	})
}

func (s *ReservationCommandsSuite) TestSystemCancel() {
	s.Run("awaiting reservation with no decision is refunded", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedPaidReservation(b, reservation.StatusAwaitingConfirmation)

		s.Require().NoError(s.commands.SystemCancel(context.Background(), b.ID))

		s.Require().Len(s.gateway.refundRequests, 1)
		s.Equal("system", s.gateway.refundRequests[0].CancelledBy)
	})

	s.Run("already decided reservation is left alone", func() {
		s.SetupTest()
		b := builder.NewReservationBuilder()
		s.seedPaidReservation(b.WithHostDecision(reservation.HostDecisionApproved), reservation.StatusComplete)

		s.Require().NoError(s.commands.SystemCancel(context.Background(), b.ID))
		s.Empty(s.gateway.refundRequests)
	})

	s.Run("vanished reservation is a no-op", func() {
		s.SetupTest()
		s.Require().NoError(s.commands.SystemCancel(context.Background(), uuid.New()))
	})
}
