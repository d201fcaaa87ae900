package types

// PaymentProvider identifies the upstream payment processor an event came from.
type PaymentProvider string

const (
	PaymentProviderStripe    PaymentProvider = "stripe"
	PaymentProviderPayPal    PaymentProvider = "paypal"
	PaymentProviderAirwallex PaymentProvider = "airwallex"
)

// WebhookEventType enumerates the provider event types the ingress inspects.
type WebhookEventType string

const (
	WebhookEventTypePaymentIntentSucceeded WebhookEventType = "payment_intent.succeeded"
	WebhookEventTypePaymentIntentFailed    WebhookEventType = "payment_intent.payment_failed"
	WebhookEventTypeChargeSucceeded        WebhookEventType = "charge.succeeded"
)

// OrderStatus tracks an order record through the receipt pipeline.
type OrderStatus string

const (
	// OrderStatusPending is set when the record is created, before rendering.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusRendered is set once the receipt has been published.
	OrderStatusRendered OrderStatus = "rendered"
	// OrderStatusFailed is set when rendering or publishing failed. The payment
	// itself is confirmed regardless; the record is kept for reconciliation.
	OrderStatusFailed OrderStatus = "failed"
)
