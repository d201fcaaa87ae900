package v1

import (
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"

	"github.com/cartloom/checkout/internal/config"
	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/logger"
	"github.com/cartloom/checkout/internal/publisher"
	"github.com/cartloom/checkout/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// AdminHandler serves the operator receipt listing and download endpoints.
// Authorization is a single shared-secret query parameter, as the storefront
// has no operator accounts.
type AdminHandler struct {
	cfg          *config.Configuration
	publisher    publisher.Publisher
	orderService service.OrderService
	logger       *logger.Logger
}

func NewAdminHandler(
	cfg *config.Configuration,
	pub publisher.Publisher,
	orderService service.OrderService,
	logger *logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		cfg:          cfg,
		publisher:    pub,
		orderService: orderService,
		logger:       logger,
	}
}

// RequirePassword gates the admin group on the password query parameter.
func (h *AdminHandler) RequirePassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := h.cfg.Admin.Password
		given := c.Query("password")
		if expected == "" ||
			subtle.ConstantTimeCompare([]byte(given), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

type receiptListing struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
}

// ListOrders processes GET /admin/orders.
func (h *AdminHandler) ListOrders(c *gin.Context) {
	receipts, err := h.publisher.List(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to list receipts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list receipts"})
		return
	}

	listings := lo.Map(receipts, func(r publisher.StoredReceipt, _ int) receiptListing {
		return receiptListing{
			Name:        r.Name,
			Size:        r.Size,
			DownloadURL: fmt.Sprintf("/admin/orders/download/%s", r.Name),
		}
	})

	records, err := h.orderService.ListRecentOrders(c.Request.Context(), 50)
	if err != nil {
		h.logger.Warnw("failed to list order records", "error", err)
		records = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"receipts": listings,
		"orders":   records,
	})
}

// DownloadOrder processes GET /admin/orders/download/:filename.
func (h *AdminHandler) DownloadOrder(c *gin.Context) {
	filename := c.Param("filename")

	rc, err := h.publisher.Open(c.Request.Context(), filename)
	if err != nil {
		h.logger.Warnw("failed to open receipt", "filename", filename, "error", err)
		c.JSON(ierr.HTTPStatusFromErr(err), gin.H{"error": "receipt not available"})
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/pdf")
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.logger.Errorw("failed to stream receipt", "filename", filename, "error", err)
	}
}
