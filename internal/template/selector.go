package template

import (
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/logger"
	"github.com/samber/lo"
)

// Ref identifies one selected template file.
type Ref struct {
	// ID is the stable identifier recorded on the order, e.g. "2895/b.pdf".
	ID string
	// Path is the absolute or base-relative filesystem path of the file.
	Path string
}

// Selector picks a receipt template for a charged amount. Templates live in
// one subdirectory per amount in cents; every PDF in the bucket is
// interchangeable and one is chosen at random for visual variety.
type Selector struct {
	baseDir string
	logger  *logger.Logger
}

func NewSelector(baseDir string, logger *logger.Logger) *Selector {
	return &Selector{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Pick returns a uniformly random eligible template for the amount bucket.
func (s *Selector) Pick(amountCents int64) (*Ref, error) {
	bucket := strconv.FormatInt(amountCents, 10)
	dir := filepath.Join(s.baseDir, bucket)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("no template directory for amount").
			WithMessagef("amount_cents:%d, dir:%s", amountCents, dir).
			Mark(ierr.ErrNoTemplates)
	}

	candidates := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		if e.IsDir() {
			return "", false
		}
		if !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			return "", false
		}
		return e.Name(), true
	})

	if len(candidates) == 0 {
		return nil, ierr.NewErrorf("template directory for amount %d is empty", amountCents).
			WithMessagef("dir:%s", dir).
			Mark(ierr.ErrNoTemplates)
	}

	name := candidates[rand.Intn(len(candidates))]
	return &Ref{
		ID:   filepath.ToSlash(filepath.Join(bucket, name)),
		Path: filepath.Join(dir, name),
	}, nil
}
