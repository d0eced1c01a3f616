package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aliskhannn/image-filter/internal/model"
)

// tempPattern names in-progress files. They carry no image extension, so
// discovery never picks them up.
const tempPattern = ".tmp-*"

// Storage provides a simple file-based storage backend.
// It stores files under a specified base path on the local filesystem.
type Storage struct {
	basePath string
}

// NewStorage creates a new Storage instance with the given basePath.
// The basePath defines the root directory where files will be stored.
func NewStorage(basePath string) *Storage {
	return &Storage{basePath: basePath}
}

// DefaultBasePath returns the user's Pictures directory, falling back to the
// working directory when no home directory is known.
func DefaultBasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, "Pictures")
}

// Dir resolves dir against the base path. Absolute directories are used as is.
func (s *Storage) Dir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}

	return filepath.Join(s.basePath, dir)
}

// Save stores src as filename inside dir and returns the written path.
//
// The data is written to a temporary file in dir first and only moved into
// place once it is complete, so a failed save never leaves a truncated output
// and never destroys the file it was meant to replace. Unless overwrite is
// set an existing file is never replaced and model.ErrDestinationExists is
// returned.
func (s *Storage) Save(ctx context.Context, dir, filename string, src io.Reader, overwrite bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dstDir := s.Dir(dir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: failed to create directory %s: %v", model.ErrIO, dstDir, err)
	}

	dstPath := filepath.Join(dstDir, filename)
	if !overwrite {
		// Fast path; the link below is what actually guards the destination.
		if _, err := os.Lstat(dstPath); err == nil {
			return "", fmt.Errorf("%w: %s", model.ErrDestinationExists, dstPath)
		}
	}

	tmp, err := os.CreateTemp(dstDir, tempPattern)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create temp file in %s: %v", model.ErrIO, dstDir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: failed to save file %s: %v", model.ErrIO, dstPath, err)
	}

	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: failed to close file %s: %v", model.ErrIO, dstPath, err)
	}

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return "", fmt.Errorf("%w: failed to chmod %s: %v", model.ErrIO, tmpPath, err)
	}

	if overwrite {
		if err := os.Rename(tmpPath, dstPath); err != nil {
			return "", fmt.Errorf("%w: failed to replace file %s: %v", model.ErrIO, dstPath, err)
		}

		return dstPath, nil
	}

	// Link fails when dstPath exists, which keeps the check and the
	// publish a single step even between concurrent units.
	if err := os.Link(tmpPath, dstPath); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", model.ErrDestinationExists, dstPath)
		}

		return "", fmt.Errorf("%w: failed to create file %s: %v", model.ErrIO, dstPath, err)
	}

	return dstPath, nil
}
