package stripe

import (
	"encoding/json"
	"time"

	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/types"
	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// PaymentEvent is the provider-neutral view of a verified payment success
// notification handed to the order pipeline.
type PaymentEvent struct {
	Provider        types.PaymentProvider
	Account         string
	EventID         string
	PaymentIntentID string
	PaymentMethodID string
	AmountCents     int64
	Currency        string
	CreatedAt       time.Time
}

// ParseWebhookEvent verifies the signature over the raw payload and parses
// the event. Any verification failure is marked ErrSignatureInvalid; it is
// the only error the webhook ingress surfaces as a non-200 response.
func (c *Client) ParseWebhookEvent(payload []byte, signature, webhookSecret string) (*stripeapi.Event, error) {
	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, webhookSecret, options)
	if err != nil {
		c.logger.Errorw("Stripe webhook verification failed", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrSignatureInvalid)
	}
	return &event, nil
}

// PaymentEventFromIntent extracts the pipeline input from a verified
// payment_intent.succeeded event.
func PaymentEventFromIntent(event *stripeapi.Event, account string) (*PaymentEvent, error) {
	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid payment intent data in webhook").
			Mark(ierr.ErrValidation)
	}

	pe := &PaymentEvent{
		Provider:        types.PaymentProviderStripe,
		Account:         account,
		EventID:         event.ID,
		PaymentIntentID: intent.ID,
		AmountCents:     intent.Amount,
		Currency:        string(intent.Currency),
		CreatedAt:       time.Unix(event.Created, 0).UTC(),
	}
	if intent.PaymentMethod != nil {
		pe.PaymentMethodID = intent.PaymentMethod.ID
	}
	return pe, nil
}
