package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/cartloom/checkout/internal/config"
	ierr "github.com/cartloom/checkout/internal/errors"
	integration "github.com/cartloom/checkout/internal/integration/stripe"
	"github.com/cartloom/checkout/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckoutService(t *testing.T, cfg *config.Configuration) CheckoutService {
	t.Helper()
	log, err := logger.NewLogger(cfg)
	require.NoError(t, err)
	return NewCheckoutService(cfg, integration.NewClient(cfg, log), log)
}

func TestCheckout_UnknownProduct(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Catalog.Products = map[string]config.Product{
		"standard": {AmountCents: 2895, Description: "Standard order"},
	}

	svc := newCheckoutService(t, cfg)
	_, err := svc.CreatePaymentIntent(context.Background(), "deluxe")
	require.Error(t, err)
	assert.True(t, ierr.IsNotFound(err))
}

func TestCheckout_KnownProductRequiresStripeCredentials(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Catalog.Products = map[string]config.Product{
		"standard": {AmountCents: 2895, Description: "Standard order"},
	}

	svc := newCheckoutService(t, cfg)
	_, err := svc.CreatePaymentIntent(context.Background(), "standard")
	require.Error(t, err)

	// Missing Stripe credentials are a server-side fault; only an unknown
	// product may surface as a 404.
	assert.False(t, ierr.IsNotFound(err))
	assert.True(t, ierr.Is(err, ierr.ErrSystem))
	assert.Equal(t, http.StatusInternalServerError, ierr.HTTPStatusFromErr(err))
}

func TestCheckout_Products(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Catalog.Products = map[string]config.Product{
		"standard":  {AmountCents: 2895},
		"expedited": {AmountCents: 4295},
	}

	svc := newCheckoutService(t, cfg)
	assert.Len(t, svc.Products(), 2)
}
