package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra/gateway"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "Stripe-Signature"

// WebhookHandler terminates the payment provider's webhook deliveries.
// Signature verification happens before anything else touches the body,
// and a processing failure returns 500 so the provider redelivers.
type WebhookHandler struct {
	gateway  commands.PaymentGateway
	commands commands.WebhookCommands
}

func NewWebhookHandler(gw commands.PaymentGateway, cmds commands.WebhookCommands) *WebhookHandler {
	return &WebhookHandler{
		gateway:  gw,
		commands: cmds,
	}
}

// @Summary Payment webhook
// @Description Receives payment lifecycle events from the payment provider
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /webhook [post]
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	h.handle(c, h.gateway.VerifyWebhook)
}

// @Summary Connect webhook
// @Description Receives identity and payout account events from the payment provider
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /webhook/connect [post]
func (h *WebhookHandler) HandleConnectWebhook(c *gin.Context) {
	h.handle(c, h.gateway.VerifyConnectWebhook)
}

func (h *WebhookHandler) handle(c *gin.Context, verify func(payload []byte, signature string) (*commands.GatewayEvent, error)) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	event, err := verify(payload, c.GetHeader(signatureHeader))
	if err != nil {
		if gateway.IsSignatureError(err) {
			slog.Warn("webhook signature rejected", "error", err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
		slog.Error("webhook payload rejected", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	outcome, err := h.commands.HandleGatewayEvent(c.Request.Context(), event)
	if err != nil {
		// Non-2xx makes the provider redeliver; the event log keeps the
		// retry idempotent.
		slog.Error("webhook processing failed",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": string(outcome.Status),
		"reason": outcome.Reason,
	})
}
