package service

import (
	"context"

	"github.com/cartloom/checkout/internal/config"
	ierr "github.com/cartloom/checkout/internal/errors"
	integration "github.com/cartloom/checkout/internal/integration/stripe"
	"github.com/cartloom/checkout/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

// CheckoutResponse carries what the storefront needs to confirm the payment
// client-side.
type CheckoutResponse struct {
	ClientSecret string `json:"clientSecret"`
	Product      string `json:"product"`
	Amount       string `json:"amount"`
	Description  string `json:"description"`
}

// CheckoutService creates payment intents for catalog products. All price
// points live in one configuration table; there is deliberately no per-price
// handler.
type CheckoutService interface {
	CreatePaymentIntent(ctx context.Context, product string) (*CheckoutResponse, error)
	Products() map[string]config.Product
}

type checkoutService struct {
	cfg    *config.Configuration
	client *integration.Client
	logger *logger.Logger
}

func NewCheckoutService(cfg *config.Configuration, client *integration.Client, logger *logger.Logger) CheckoutService {
	return &checkoutService{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

func (s *checkoutService) Products() map[string]config.Product {
	return s.cfg.Catalog.Products
}

func (s *checkoutService) CreatePaymentIntent(ctx context.Context, product string) (*CheckoutResponse, error) {
	p, ok := s.cfg.Catalog.Products[product]
	if !ok {
		return nil, ierr.NewErrorf("unknown product %q", product).
			WithHint("Product not found in catalog").
			Mark(ierr.ErrNotFound)
	}

	stripeClient, _, err := s.client.Default()
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(p.AmountCents),
		Currency: stripe.String("usd"),
		Metadata: map[string]string{
			"product":     product,
			"description": p.Description,
		},
	}

	intent, err := stripeClient.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		s.logger.Errorw("failed to create payment intent",
			"product", product,
			"amount_cents", p.AmountCents,
			"error", err,
		)
		return nil, ierr.WithError(err).
			WithHint("Unable to create payment intent").
			Mark(ierr.ErrHTTPClient)
	}

	amount := decimal.NewFromInt(p.AmountCents).Div(decimal.NewFromInt(100))
	return &CheckoutResponse{
		ClientSecret: intent.ClientSecret,
		Product:      product,
		Amount:       amount.StringFixed(2),
		Description:  p.Description,
	}, nil
}
