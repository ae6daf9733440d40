package commands

import (
	"context"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/billing"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"

	"github.com/google/uuid"
)

// PricingEngine computes the full price breakdown for a stay. Pure function
// from the booking flow's perspective; rule internals live elsewhere.
type PricingEngine interface {
	Quote(property *shared.PropertySnapshot, dateRange reservation.DateRange, partySize reservation.PartySize, promoCode *string, targetCurrency string) (billing.PriceBreakdown, error)
}

type CheckoutSession struct {
	SessionID string
	URL       string
}

type RefundRequest struct {
	PaymentRef    string
	Amount        int64
	Currency      string
	ReservationID uuid.UUID
	// CancelledBy/Reason travel as refund metadata and come back on the
	// refund-settled event, so the settling webhook knows who initiated.
	CancelledBy string
	Reason      string
}

// PaymentGateway wraps the payment provider's API. Webhook verification
// lives on the same interface so the signing secrets stay in one place.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, b *billing.Billing, res *reservation.Reservation, instanceTag string) (*CheckoutSession, error)
	CreateRefund(ctx context.Context, req RefundRequest) (refundRef string, err error)
	VerifyWebhook(payload []byte, signature string) (*GatewayEvent, error)
	VerifyConnectWebhook(payload []byte, signature string) (*GatewayEvent, error)
}

type GatewayEventType string

const (
	EventCheckoutStarted  GatewayEventType = "checkout.started"
	EventPaymentCaptured  GatewayEventType = "payment.captured"
	EventRefundSettled    GatewayEventType = "refund.settled"
	EventIdentityVerified GatewayEventType = "identity.verified"
	EventPayoutAccount    GatewayEventType = "payout.account_updated"
	EventUnknown          GatewayEventType = "unknown"
)

// GatewayEvent is the provider-neutral form of a webhook delivery. The
// adapter maps raw provider payloads into this shape.
type GatewayEvent struct {
	ID            string
	Type          GatewayEventType
	AffinityTag   string
	ReservationID uuid.UUID
	SessionID     string
	PaymentRef    string
	RefundRef     string
	AmountMinor   int64
	Currency      string
	Initiator     string
	Reason        string
	ReceiptURL    *string
	CardSummary   *string
	CreatedAt     time.Time
}

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelInApp NotificationChannel = "in-app"
)

type Recipient struct {
	UserID   uuid.UUID
	Channels []NotificationChannel
	Template string
	Payload  map[string]any
}

// NotificationDispatcher is fire-and-forget: a dispatch failure is logged
// by the implementation and never rolls back the mutation that produced it.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, recipients []Recipient)
}
