package publisher

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cartloom/checkout/internal/config"
	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/logger"
	s3client "github.com/aws/aws-sdk-go-v2/service/s3"
)

// sortKeyBase is subtracted from the current unix-millisecond time so that
// flat object listings sort newest-first lexicographically.
const sortKeyBase = int64(9_999_999_999_999)

// StoredReceipt describes one persisted receipt for admin listings.
type StoredReceipt struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Publisher persists rendered receipt documents. Store failures are marked
// ErrPublishFailed and are non-fatal to webhook handling: logged, not
// retried, never surfaced to the payment provider.
type Publisher interface {
	// Filename generates the storage key for an order's receipt.
	Filename(orderNumber int64, now time.Time) string
	Store(ctx context.Context, filename string, data []byte) error
	List(ctx context.Context) ([]StoredReceipt, error)
	Open(ctx context.Context, filename string) (io.ReadCloser, error)
}

// SortableKey is the remote naming scheme: a big constant minus the current
// time in milliseconds, prefixed to the order number, e.g.
// "8239471065432_order-1117.pdf". Later receipts get smaller prefixes.
func SortableKey(orderNumber int64, now time.Time) string {
	return fmt.Sprintf("%d_order-%d.pdf", sortKeyBase-now.UnixMilli(), orderNumber)
}

// NewPublisher builds the receipt publisher selected by configuration.
func NewPublisher(cfg *config.Configuration, s3 *s3client.Client, logger *logger.Logger) (Publisher, error) {
	switch cfg.Receipts.Backend {
	case config.ReceiptBackendLocal:
		return NewLocalPublisher(cfg.Receipts.LocalDir, logger), nil
	case config.ReceiptBackendS3:
		if s3 == nil {
			return nil, ierr.NewError("s3 receipt backend requires an s3 client").
				Mark(ierr.ErrValidation)
		}
		return NewS3Publisher(s3, cfg.Receipts.Bucket, cfg.Receipts.KeyPrefix, logger), nil
	default:
		return nil, ierr.NewErrorf("unknown receipt backend: %s", cfg.Receipts.Backend).
			Mark(ierr.ErrValidation)
	}
}
