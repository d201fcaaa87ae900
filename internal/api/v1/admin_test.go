package v1

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cartloom/checkout/internal/config"
	"github.com/cartloom/checkout/internal/logger"
	"github.com/cartloom/checkout/internal/publisher"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminTestRouter(t *testing.T, password string) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.GetDefaultConfig()
	cfg.Admin.Password = password

	log, err := logger.NewLogger(cfg)
	require.NoError(t, err)

	dir := t.TempDir()
	pub := publisher.NewLocalPublisher(dir, log)
	handler := NewAdminHandler(cfg, pub, &stubOrderService{}, log)

	router := gin.New()
	admin := router.Group("/admin", handler.RequirePassword())
	admin.GET("/orders", handler.ListOrders)
	admin.GET("/orders/download/:filename", handler.DownloadOrder)
	return router, dir
}

func getAdmin(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAdmin_RequiresPassword(t *testing.T) {
	router, _ := adminTestRouter(t, "hunter2")

	assert.Equal(t, http.StatusUnauthorized, getAdmin(router, "/admin/orders").Code)
	assert.Equal(t, http.StatusUnauthorized, getAdmin(router, "/admin/orders?password=wrong").Code)
	assert.Equal(t, http.StatusOK, getAdmin(router, "/admin/orders?password=hunter2").Code)
}

func TestAdmin_EmptyConfiguredPasswordLocksEndpoints(t *testing.T) {
	router, _ := adminTestRouter(t, "")

	assert.Equal(t, http.StatusUnauthorized, getAdmin(router, "/admin/orders").Code)
	assert.Equal(t, http.StatusUnauthorized, getAdmin(router, "/admin/orders?password=").Code)
}

func TestAdmin_ListAndDownload(t *testing.T) {
	router, dir := adminTestRouter(t, "hunter2")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "order-1117.pdf"), []byte("%PDF-1.4 receipt"), 0o644))

	w := getAdmin(router, "/admin/orders?password=hunter2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "order-1117.pdf")
	assert.Contains(t, w.Body.String(), "/admin/orders/download/order-1117.pdf")

	w = getAdmin(router, "/admin/orders/download/order-1117.pdf?password=hunter2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "order-1117.pdf")
	assert.Equal(t, "%PDF-1.4 receipt", w.Body.String())
}

func TestAdmin_DownloadMissingReceipt(t *testing.T) {
	router, _ := adminTestRouter(t, "hunter2")

	w := getAdmin(router, "/admin/orders/download/order-404.pdf?password=hunter2")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
