package billing

import (
	"context"
	"time"

	"github.com/cartloom/checkout/internal/domain/order"
	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/integration/stripe"
	"github.com/cartloom/checkout/internal/logger"
)

const fetchTimeout = 10 * time.Second

// Resolver fetches the billing details recorded on a payment method.
//
// Lookups fail soft: every provider error or empty result is logged and
// reported as ErrBillingUnavailable so the caller can continue rendering with
// the fallback marker.
type Resolver interface {
	Fetch(ctx context.Context, account, paymentMethodID string) (*order.BillingAddress, error)
}

type stripeResolver struct {
	client *stripe.Client
	logger *logger.Logger
}

func NewStripeResolver(client *stripe.Client, logger *logger.Logger) Resolver {
	return &stripeResolver{
		client: client,
		logger: logger,
	}
}

func (r *stripeResolver) Fetch(ctx context.Context, account, paymentMethodID string) (*order.BillingAddress, error) {
	if paymentMethodID == "" {
		return nil, ierr.NewError("no payment method reference on event").
			Mark(ierr.ErrBillingUnavailable)
	}

	stripeClient, _, err := r.client.ForAccount(account)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrBillingUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	pm, err := stripeClient.V1PaymentMethods.Retrieve(ctx, paymentMethodID, nil)
	if err != nil {
		r.logger.Warnw("billing lookup failed",
			"payment_method_id", paymentMethodID,
			"account", account,
			"error", err,
		)
		return nil, ierr.WithError(err).
			WithMessagef("payment_method_id:%s", paymentMethodID).
			Mark(ierr.ErrBillingUnavailable)
	}

	addr := &order.BillingAddress{}
	if pm.BillingDetails != nil {
		addr.Name = pm.BillingDetails.Name
		if pm.BillingDetails.Address != nil {
			addr.Line1 = pm.BillingDetails.Address.Line1
			addr.Line2 = pm.BillingDetails.Address.Line2
			addr.City = pm.BillingDetails.Address.City
			addr.PostalCode = pm.BillingDetails.Address.PostalCode
			addr.Country = pm.BillingDetails.Address.Country
		}
	}

	if addr.IsEmpty() {
		return nil, ierr.NewError("payment method carries no billing details").
			WithMessagef("payment_method_id:%s", paymentMethodID).
			Mark(ierr.ErrBillingUnavailable)
	}

	return addr, nil
}
