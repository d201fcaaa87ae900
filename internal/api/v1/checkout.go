package v1

import (
	"net/http"

	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/logger"
	"github.com/cartloom/checkout/internal/service"
	"github.com/cartloom/checkout/internal/validator"
	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	logger          *logger.Logger
}

func NewCheckoutHandler(checkoutService service.CheckoutService, logger *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

type createCheckoutRequest struct {
	Product string `json:"product" validate:"required"`
}

// CreatePaymentIntent processes POST /api/checkout.
func (h *CheckoutHandler) CreatePaymentIntent(c *gin.Context) {
	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := validator.ValidateRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product is required"})
		return
	}

	resp, err := h.checkoutService.CreatePaymentIntent(c.Request.Context(), req.Product)
	if err != nil {
		h.logger.Errorw("checkout failed", "product", req.Product, "error", err)
		c.JSON(ierr.HTTPStatusFromErr(err), gin.H{"error": "unable to create payment"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
