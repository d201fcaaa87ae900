package api

import (
	v1 "github.com/cartloom/checkout/internal/api/v1"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health   *v1.HealthHandler
	Webhook  *v1.WebhookHandler
	Checkout *v1.CheckoutHandler
	Admin    *v1.AdminHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.Default()

	router.GET("/health", handlers.Health.Health)

	// Storefront API
	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/checkout", handlers.Checkout.CreatePaymentIntent)
		apiGroup.POST("/webhooks/stripe/:account", handlers.Webhook.HandleStripeWebhook)
		// Legacy route wired to the default account.
		apiGroup.POST("/stripe/webhook", handlers.Webhook.HandleStripeWebhook)
	}

	// Operator endpoints
	admin := router.Group("/admin", handlers.Admin.RequirePassword())
	{
		admin.GET("/orders", handlers.Admin.ListOrders)
		admin.GET("/orders/download/:filename", handlers.Admin.DownloadOrder)
	}

	return router
}
