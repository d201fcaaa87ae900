package stripe

import (
	"github.com/cartloom/checkout/internal/config"
	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/logger"
	"github.com/stripe/stripe-go/v82"
)

// Client hands out configured Stripe API clients per storefront account. The
// storefront runs an "old" and a "new" account side by side; both share one
// order number sequence.
type Client struct {
	cfg    *config.Configuration
	logger *logger.Logger
}

// NewClient creates a new Stripe client factory
func NewClient(cfg *config.Configuration, logger *logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger,
	}
}

// ForAccount returns a configured Stripe client and the account credentials
// for the named account.
func (c *Client) ForAccount(account string) (*stripe.Client, config.StripeAccount, error) {
	acct, ok := c.cfg.Stripe.Account(account)
	if !ok {
		// A missing account entry is a deployment problem, never a client 4xx.
		return nil, config.StripeAccount{}, ierr.NewErrorf("unknown stripe account %q", account).
			WithHint("Stripe account not configured").
			Mark(ierr.ErrSystem)
	}
	if acct.SecretKey == "" {
		return nil, config.StripeAccount{}, ierr.NewError("stripe secret key not configured").
			WithMessagef("account:%s", account).
			Mark(ierr.ErrSystem)
	}

	return stripe.NewClient(acct.SecretKey, nil), acct, nil
}

// Default returns the client for the configured default account.
func (c *Client) Default() (*stripe.Client, config.StripeAccount, error) {
	return c.ForAccount(c.cfg.Stripe.DefaultAccount)
}
