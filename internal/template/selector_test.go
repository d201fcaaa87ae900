package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cartloom/checkout/internal/config"
	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSelector(t *testing.T, baseDir string) *Selector {
	t.Helper()
	log, err := logger.NewLogger(config.GetDefaultConfig())
	require.NoError(t, err)
	return NewSelector(baseDir, log)
}

func writeTemplate(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
}

func TestSelector_PickEventuallyUsesEveryTemplate(t *testing.T) {
	base := t.TempDir()
	writeTemplate(t, filepath.Join(base, "2895"), "a.pdf")
	writeTemplate(t, filepath.Join(base, "2895"), "b.pdf")
	writeTemplate(t, filepath.Join(base, "2895"), "notes.txt")

	sel := newTestSelector(t, base)

	picked := make(map[string]int)
	for i := 0; i < 200; i++ {
		ref, err := sel.Pick(2895)
		require.NoError(t, err)
		picked[ref.ID]++
	}

	assert.Len(t, picked, 2)
	assert.Positive(t, picked["2895/a.pdf"])
	assert.Positive(t, picked["2895/b.pdf"])
	assert.Zero(t, picked["2895/notes.txt"])
}

func TestSelector_PickReturnsUsablePath(t *testing.T) {
	base := t.TempDir()
	writeTemplate(t, filepath.Join(base, "4295"), "a.pdf")

	sel := newTestSelector(t, base)
	ref, err := sel.Pick(4295)
	require.NoError(t, err)

	assert.Equal(t, "4295/a.pdf", ref.ID)
	_, err = os.Stat(ref.Path)
	assert.NoError(t, err)
}

func TestSelector_NoDirectoryForAmount(t *testing.T) {
	sel := newTestSelector(t, t.TempDir())

	_, err := sel.Pick(9999)
	require.Error(t, err)
	assert.True(t, ierr.Is(err, ierr.ErrNoTemplates))
}

func TestSelector_EmptyDirectoryForAmount(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "2895"), 0o755))

	sel := newTestSelector(t, base)
	_, err := sel.Pick(2895)
	require.Error(t, err)
	assert.True(t, ierr.Is(err, ierr.ErrNoTemplates))
}
