package v1

import (
	"io"
	"net/http"

	"github.com/cartloom/checkout/internal/config"
	integration "github.com/cartloom/checkout/internal/integration/stripe"
	"github.com/cartloom/checkout/internal/logger"
	"github.com/cartloom/checkout/internal/sentry"
	"github.com/cartloom/checkout/internal/service"
	"github.com/cartloom/checkout/internal/types"
	"github.com/gin-gonic/gin"
)

// WebhookHandler is the payment webhook ingress. Once the signature checks
// out, the response is 200 no matter what happens downstream: a provider
// retry of an already-processed payment would issue a duplicate order number,
// so rendering and publishing failures are absorbed and logged.
type WebhookHandler struct {
	cfg          *config.Configuration
	stripeClient *integration.Client
	orderService service.OrderService
	sentry       *sentry.Service
	logger       *logger.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(
	cfg *config.Configuration,
	stripeClient *integration.Client,
	orderService service.OrderService,
	sentryService *sentry.Service,
	logger *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		cfg:          cfg,
		stripeClient: stripeClient,
		orderService: orderService,
		sentry:       sentryService,
		logger:       logger,
	}
}

// HandleStripeWebhook processes POST /api/webhooks/stripe/:account.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	account := c.Param("account")
	if account == "" {
		account = h.cfg.Stripe.DefaultAccount
	}

	// Read the raw request body; the signature is computed over these bytes.
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Errorw("failed to read request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		h.logger.Errorw("missing Stripe-Signature header", "account", account)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing Stripe-Signature header",
		})
		return
	}

	acct, ok := h.cfg.Stripe.Account(account)
	if !ok || acct.WebhookSecret == "" {
		h.logger.Errorw("webhook secret not configured", "account", account)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Webhook secret not configured for this account",
		})
		return
	}

	event, err := h.stripeClient.ParseWebhookEvent(body, signature, acct.WebhookSecret)
	if err != nil {
		h.logger.Errorw("failed to verify Stripe webhook event",
			"account", account,
			"error", err,
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to verify webhook signature or parse event",
		})
		return
	}

	// From here on the provider always gets a 200 so it never retries.
	if string(event.Type) != string(types.WebhookEventTypePaymentIntentSucceeded) {
		h.logger.Debugw("ignoring webhook event",
			"account", account,
			"event_id", event.ID,
			"event_type", event.Type,
		)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	paymentEvent, err := integration.PaymentEventFromIntent(event, account)
	if err != nil {
		h.logger.Errorw("failed to parse payment intent from webhook",
			"account", account,
			"event_id", event.ID,
			"error", err,
		)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	result := h.orderService.ProcessPaymentSucceeded(c.Request.Context(), paymentEvent)
	if result.Failed() {
		h.sentry.CaptureException(result.Err)
		h.logger.Errorw("receipt pipeline failed",
			"account", account,
			"event_id", event.ID,
			"payment_intent_id", paymentEvent.PaymentIntentID,
			"stage", result.Stage,
			"order_number", result.OrderNumber,
			"error", result.Err,
		)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
