package sequencer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/logger"
)

// counterFile is the on-disk shape of the counter: {"lastOrderNumber": N}.
type counterFile struct {
	LastOrderNumber int64 `json:"lastOrderNumber"`
}

// FileSequencer keeps the counter in a local JSON file. A process-wide mutex
// serializes increments; the file is replaced atomically via rename so a
// crash mid-write never truncates the counter.
type FileSequencer struct {
	mu     sync.Mutex
	path   string
	seed   int64
	logger *logger.Logger
}

func NewFileSequencer(path string, seed int64, logger *logger.Logger) *FileSequencer {
	return &FileSequencer{
		path:   path,
		seed:   seed,
		logger: logger,
	}
}

func (s *FileSequencer) Next(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, ierr.WithError(err).Mark(ierr.ErrStorageUnavailable)
	}

	current, err := s.read()
	if err != nil {
		return 0, err
	}

	next := current + 1
	if err := s.write(next); err != nil {
		return 0, err
	}

	return next, nil
}

func (s *FileSequencer) read() (int64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// First access initializes the counter with the configured seed.
			return s.seed, nil
		}
		return 0, ierr.WithError(err).
			WithHint("failed to read order counter file").
			WithMessagef("path:%s", s.path).
			Mark(ierr.ErrStorageUnavailable)
	}

	var cf counterFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return 0, ierr.WithError(err).
			WithHint("order counter file is corrupt").
			WithMessagef("path:%s", s.path).
			Mark(ierr.ErrStorageUnavailable)
	}
	return cf.LastOrderNumber, nil
}

func (s *FileSequencer) write(value int64) error {
	data, err := json.MarshalIndent(counterFile{LastOrderNumber: value}, "", "  ")
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrStorageUnavailable)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ierr.WithError(err).
			WithHint("failed to create counter directory").
			Mark(ierr.ErrStorageUnavailable)
	}

	tmp, err := os.CreateTemp(dir, ".order-counter-*")
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrStorageUnavailable)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ierr.WithError(err).Mark(ierr.ErrStorageUnavailable)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ierr.WithError(err).Mark(ierr.ErrStorageUnavailable)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return ierr.WithError(err).Mark(ierr.ErrStorageUnavailable)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return ierr.WithError(err).
			WithHint("failed to persist order counter").
			WithMessagef("path:%s", s.path).
			Mark(ierr.ErrStorageUnavailable)
	}
	return nil
}
