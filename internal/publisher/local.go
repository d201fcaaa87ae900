package publisher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/logger"
)

// LocalPublisher writes receipts into a flat directory, created on demand.
// Files are named order-<N>.pdf.
type LocalPublisher struct {
	dir    string
	logger *logger.Logger
}

func NewLocalPublisher(dir string, logger *logger.Logger) *LocalPublisher {
	return &LocalPublisher{
		dir:    dir,
		logger: logger,
	}
}

func (p *LocalPublisher) Filename(orderNumber int64, _ time.Time) string {
	return fmt.Sprintf("order-%d.pdf", orderNumber)
}

func (p *LocalPublisher) Store(ctx context.Context, filename string, data []byte) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return ierr.WithError(err).
			WithHint("failed to create receipts directory").
			WithMessagef("dir:%s", p.dir).
			Mark(ierr.ErrPublishFailed)
	}

	path := filepath.Join(p.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ierr.WithError(err).
			WithHint("failed to write receipt file").
			WithMessagef("path:%s", path).
			Mark(ierr.ErrPublishFailed)
	}

	p.logger.Infow("stored receipt", "path", path, "bytes", len(data))
	return nil
}

func (p *LocalPublisher) List(ctx context.Context) ([]StoredReceipt, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ierr.WithError(err).
			WithHint("failed to list receipts directory").
			Mark(ierr.ErrStorageUnavailable)
	}

	receipts := make([]StoredReceipt, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		receipts = append(receipts, StoredReceipt{
			Name:    e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(receipts, func(i, j int) bool {
		return receipts[i].ModTime.After(receipts[j].ModTime)
	})
	return receipts, nil
}

// Open streams one stored receipt. The filename must be a bare name inside
// the receipts directory; anything resembling a path is rejected.
func (p *LocalPublisher) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	if filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return nil, ierr.NewError("invalid receipt filename").
			Mark(ierr.ErrValidation)
	}

	f, err := os.Open(filepath.Join(p.dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ierr.NewErrorf("receipt %s not found", filename).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).Mark(ierr.ErrStorageUnavailable)
	}
	return f, nil
}
