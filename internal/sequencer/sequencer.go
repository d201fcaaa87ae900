package sequencer

import (
	"context"

	"github.com/cartloom/checkout/internal/config"
	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/logger"
	s3client "github.com/aws/aws-sdk-go-v2/service/s3"
)

// Sequencer hands out the next unique order number from a durable counter.
//
// Every implementation must make Next linearizable across concurrent callers:
// N concurrent calls return exactly {seed+1 .. seed+N}, no duplicates, no
// gaps, and the new value is persisted before Next returns. Failures are
// marked ErrStorageUnavailable and no number is considered issued.
type Sequencer interface {
	Next(ctx context.Context) (int64, error)
}

// NewSequencer builds the sequencer selected by configuration.
func NewSequencer(cfg *config.Configuration, s3 *s3client.Client, logger *logger.Logger) (Sequencer, error) {
	switch cfg.Orders.CounterBackend {
	case config.CounterBackendFile:
		return NewFileSequencer(cfg.Orders.CounterPath, cfg.Orders.CounterSeed, logger), nil
	case config.CounterBackendS3:
		if s3 == nil {
			return nil, ierr.NewError("s3 counter backend requires an s3 client").
				Mark(ierr.ErrValidation)
		}
		return NewS3Sequencer(s3, cfg.Orders.CounterBucket, cfg.Orders.CounterKey, cfg.Orders.CounterSeed, logger), nil
	case config.CounterBackendMemory:
		return NewMemorySequencer(cfg.Orders.CounterSeed), nil
	default:
		return nil, ierr.NewErrorf("unknown counter backend: %s", cfg.Orders.CounterBackend).
			Mark(ierr.ErrValidation)
	}
}
