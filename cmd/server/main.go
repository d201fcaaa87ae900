package main

import (
	"context"
	"time"

	"github.com/cartloom/checkout/internal/api"
	v1 "github.com/cartloom/checkout/internal/api/v1"
	"github.com/cartloom/checkout/internal/billing"
	"github.com/cartloom/checkout/internal/config"
	"github.com/cartloom/checkout/internal/domain/order"
	integration "github.com/cartloom/checkout/internal/integration/stripe"
	"github.com/cartloom/checkout/internal/logger"
	"github.com/cartloom/checkout/internal/postgres"
	"github.com/cartloom/checkout/internal/publisher"
	"github.com/cartloom/checkout/internal/receipt"
	"github.com/cartloom/checkout/internal/repository/inmemory"
	pgrepo "github.com/cartloom/checkout/internal/repository/postgres"
	"github.com/cartloom/checkout/internal/s3"
	"github.com/cartloom/checkout/internal/sentry"
	"github.com/cartloom/checkout/internal/sequencer"
	"github.com/cartloom/checkout/internal/service"
	"github.com/cartloom/checkout/internal/template"
	"github.com/cartloom/checkout/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Postgres (nil when disabled)
			postgres.NewDB,

			// Object storage (nil when no s3 backend is configured)
			s3.NewClient,

			// Stripe
			integration.NewClient,

			// Order number counter
			sequencer.NewSequencer,

			// Receipt pipeline pieces
			provideTemplateSelector,
			provideRenderer,
			billing.NewStripeResolver,
			publisher.NewPublisher,

			// Repositories
			provideOrderRepository,
		),
	)

	// Monitoring
	opts = append(opts, sentry.Module())

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewOrderService,
			service.NewCheckoutService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			initValidator,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func initValidator() {
	validator.NewValidator()
}

func provideTemplateSelector(cfg *config.Configuration, log *logger.Logger) service.TemplatePicker {
	return template.NewSelector(cfg.Orders.TemplatesDir, log)
}

func provideRenderer(cfg *config.Configuration, log *logger.Logger) (service.ReceiptRenderer, error) {
	return receipt.NewRenderer(cfg, log)
}

func provideOrderRepository(cfg *config.Configuration, db *postgres.DB, log *logger.Logger) (order.Repository, error) {
	if cfg.Postgres.Enabled {
		return pgrepo.NewOrderRepository(db, log)
	}
	log.Warn("postgres disabled, order records are kept in memory only")
	return inmemory.NewOrderStore(), nil
}

func provideHandlers(
	cfg *config.Configuration,
	logger *logger.Logger,
	stripeClient *integration.Client,
	orderService service.OrderService,
	checkoutService service.CheckoutService,
	pub publisher.Publisher,
	sentryService *sentry.Service,
) api.Handlers {
	return api.Handlers{
		Health:   v1.NewHealthHandler(logger),
		Webhook:  v1.NewWebhookHandler(cfg, stripeClient, orderService, sentryService, logger),
		Checkout: v1.NewCheckoutHandler(checkoutService, logger),
		Admin:    v1.NewAdminHandler(cfg, pub, orderService, logger),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infof("Starting API server on %s", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}
