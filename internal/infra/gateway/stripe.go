package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/billing"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/domain/reservation"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/config"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/errs"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

const (
	metaReservationID = "reservation_id"
	metaInstanceTag   = "instance_tag"
	metaCancelledBy   = "cancelled_by"
	metaCancelReason  = "cancel_reason"
)

var errSignatureVerification = errs.New("webhook signature verification failed")

// StripeGateway implements the payment provider port against the Stripe
// API. Checkout sessions, refunds, and both webhook endpoints share one
// client so the secrets are configured in a single place.
type StripeGateway struct {
	api *client.API
	cfg config.StripeConfig
}

func NewStripeGateway(cfg config.StripeConfig) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeGateway{api: api, cfg: cfg}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, b *billing.Billing, res *reservation.Reservation, instanceTag string) (*commands.CheckoutSession, error) {
	total, err := billing.NewMoney(b.TotalPrice(), b.Currency())
	if err != nil {
		return nil, errs.Wrap(err, "invalid checkout amount")
	}
	if err := total.ValidateChargeable(); err != nil {
		return nil, err
	}

	metadata := map[string]string{
		metaReservationID: res.ID().String(),
		metaInstanceTag:   instanceTag,
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(g.cfg.SuccessURL),
		CancelURL:  stripe.String(g.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(total.Currency()),
					UnitAmount: stripe.Int64(total.GatewayAmount()),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Stay %s", res.DateRange().String())),
					},
				},
			},
		},
		// The payment intent carries the same metadata so intent-level
		// events can be routed without loading the session.
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if exp := res.ExpiresAt(); exp != nil {
		params.ExpiresAt = stripe.Int64(exp.Unix())
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errs.Wrap(err, "failed to create checkout session")
	}

	return &commands.CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) CreateRefund(ctx context.Context, req commands.RefundRequest) (string, error) {
	amount, err := billing.NewMoney(req.Amount, req.Currency)
	if err != nil {
		return "", errs.Wrap(err, "invalid refund amount")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentRef),
		Amount:        stripe.Int64(amount.GatewayAmount()),
	}
	params.Context = ctx
	params.AddMetadata(metaReservationID, req.ReservationID.String())
	params.AddMetadata(metaInstanceTag, g.cfg.InstanceTag)
	params.AddMetadata(metaCancelledBy, req.CancelledBy)
	if req.Reason != "" {
		params.AddMetadata(metaCancelReason, req.Reason)
	}

	ref, err := g.api.Refunds.New(params)
	if err != nil {
		return "", errs.Wrap(err, "failed to create refund")
	}
	return ref.ID, nil
}

func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*commands.GatewayEvent, error) {
	return g.verify(payload, signature, g.cfg.WebhookSecret)
}

func (g *StripeGateway) VerifyConnectWebhook(payload []byte, signature string) (*commands.GatewayEvent, error) {
	return g.verify(payload, signature, g.cfg.ConnectWebhookSecret)
}

func (g *StripeGateway) verify(payload []byte, signature, secret string) (*commands.GatewayEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, secret)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "invalid webhook payload"), errSignatureVerification)
	}
	return mapEvent(event)
}

func IsSignatureError(err error) bool {
	return errors.Is(err, errSignatureVerification)
}

// mapEvent translates a raw Stripe event into the provider-neutral shape
// the ingestor consumes. Unrecognized event types map to EventUnknown and
// are acknowledged without processing.
func mapEvent(event stripe.Event) (*commands.GatewayEvent, error) {
	out := &commands.GatewayEvent{
		ID:        event.ID,
		Type:      commands.EventUnknown,
		CreatedAt: time.Unix(event.Created, 0).UTC(),
	}

	switch event.Type {
	case "payment_intent.created":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, errs.Wrap(err, "failed to decode payment intent event")
		}
		out.Type = commands.EventCheckoutStarted
		out.PaymentRef = pi.ID
		out.Currency = string(pi.Currency)
		applyMetadata(out, pi.Metadata)

	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, errs.Wrap(err, "failed to decode checkout session event")
		}
		out.Type = commands.EventPaymentCaptured
		out.SessionID = sess.ID
		out.Currency = string(sess.Currency)
		out.AmountMinor = billing.GatewayToMinor(sess.AmountTotal, string(sess.Currency))
		if sess.PaymentIntent != nil {
			out.PaymentRef = sess.PaymentIntent.ID
		}
		applyMetadata(out, sess.Metadata)

	case "refund.updated", "charge.refund.updated":
		var ref stripe.Refund
		if err := json.Unmarshal(event.Data.Raw, &ref); err != nil {
			return nil, errs.Wrap(err, "failed to decode refund event")
		}
		// Only a succeeded refund settles the ledger; pending and failed
		// updates are acknowledged without processing.
		if ref.Status != stripe.RefundStatusSucceeded {
			return out, nil
		}
		out.Type = commands.EventRefundSettled
		out.RefundRef = ref.ID
		out.Currency = string(ref.Currency)
		out.AmountMinor = billing.GatewayToMinor(ref.Amount, string(ref.Currency))
		if ref.PaymentIntent != nil {
			out.PaymentRef = ref.PaymentIntent.ID
		}
		applyMetadata(out, ref.Metadata)
		out.Initiator = ref.Metadata[metaCancelledBy]
		out.Reason = ref.Metadata[metaCancelReason]

	case "identity.verification_session.verified":
		out.Type = commands.EventIdentityVerified

	case "account.updated":
		out.Type = commands.EventPayoutAccount
	}

	return out, nil
}

func applyMetadata(out *commands.GatewayEvent, metadata map[string]string) {
	out.AffinityTag = metadata[metaInstanceTag]
	if raw, ok := metadata[metaReservationID]; ok {
		if id, err := uuid.Parse(raw); err == nil {
			out.ReservationID = id
		}
	}
}

var _ commands.PaymentGateway = (*StripeGateway)(nil)
