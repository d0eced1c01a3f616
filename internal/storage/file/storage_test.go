package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/image-filter/internal/model"
)

func TestSave_CreatesFileAndDirs(t *testing.T) {
	base := t.TempDir()
	s := NewStorage(base)

	dst, err := s.Save(context.Background(), "out/nested", "a_processed.png", strings.NewReader("data"), false)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "out", "nested", "a_processed.png"), dst)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestSave_AbsoluteDir(t *testing.T) {
	abs := t.TempDir()
	s := NewStorage(t.TempDir())

	dst, err := s.Save(context.Background(), abs, "x.png", strings.NewReader("1"), false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(abs, "x.png"), dst)
}

func TestSave_DestinationExists(t *testing.T) {
	base := t.TempDir()
	s := NewStorage(base)
	ctx := context.Background()

	_, err := s.Save(ctx, "", "x.png", strings.NewReader("first"), false)
	require.NoError(t, err)

	_, err = s.Save(ctx, "", "x.png", strings.NewReader("second"), false)
	assert.ErrorIs(t, err, model.ErrDestinationExists)

	got, err := os.ReadFile(filepath.Join(base, "x.png"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
}

func TestSave_Overwrite(t *testing.T) {
	base := t.TempDir()
	s := NewStorage(base)
	ctx := context.Background()

	_, err := s.Save(ctx, "", "x.png", strings.NewReader("a much longer first body"), false)
	require.NoError(t, err)

	dst, err := s.Save(ctx, "", "x.png", strings.NewReader("second"), true)
	require.NoError(t, err)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestSave_FailedCopyRemovesPartialFile(t *testing.T) {
	base := t.TempDir()
	s := NewStorage(base)

	_, err := s.Save(context.Background(), "", "x.png", failingReader{}, false)
	assert.ErrorIs(t, err, model.ErrIO)

	_, statErr := os.Stat(filepath.Join(base, "x.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSave_FailedOverwriteKeepsExistingFile(t *testing.T) {
	base := t.TempDir()
	s := NewStorage(base)
	ctx := context.Background()

	dst, err := s.Save(ctx, "", "a_processed.png", strings.NewReader("previous output"), false)
	require.NoError(t, err)

	_, err = s.Save(ctx, "", "a_processed.png", io.MultiReader(strings.NewReader("half"), failingReader{}), true)
	assert.ErrorIs(t, err, model.ErrIO)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "previous output", string(got))
	assertOnlyFiles(t, base, "a_processed.png")
}

func TestSave_FailedCopyLeavesNoTempFiles(t *testing.T) {
	base := t.TempDir()
	s := NewStorage(base)

	_, err := s.Save(context.Background(), "", "x.png", io.MultiReader(strings.NewReader("half"), failingReader{}), false)
	assert.ErrorIs(t, err, model.ErrIO)
	assertOnlyFiles(t, base)

	// A failed attempt must not block the next one.
	_, err = s.Save(context.Background(), "", "x.png", strings.NewReader("full"), false)
	require.NoError(t, err)
	assertOnlyFiles(t, base, "x.png")
}

func TestSave_WrittenFileMode(t *testing.T) {
	dst, err := NewStorage(t.TempDir()).Save(context.Background(), "", "x.png", strings.NewReader("1"), false)
	require.NoError(t, err)

	fi, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm())
}

func assertOnlyFiles(t *testing.T, dir string, want ...string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.Name())
	}
	assert.ElementsMatch(t, want, got)
}

func TestSave_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStorage(t.TempDir()).Save(ctx, "", "x.png", strings.NewReader("1"), false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultBasePath(t *testing.T) {
	assert.Equal(t, "Pictures", filepath.Base(DefaultBasePath()))
}
