// Package app builds the filter engine from configuration. It is shared by
// the service and the CLI.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/aliskhannn/image-filter/internal/batch"
	"github.com/aliskhannn/image-filter/internal/codec"
	"github.com/aliskhannn/image-filter/internal/config"
	"github.com/aliskhannn/image-filter/internal/processor"
	"github.com/aliskhannn/image-filter/internal/storage/bucket"
	"github.com/aliskhannn/image-filter/internal/storage/file"
)

// FileStorage is the persistence step shared by both storage backends.
type FileStorage interface {
	Save(ctx context.Context, dir, filename string, src io.Reader, overwrite bool) (string, error)
}

// NewFileStorage returns the backend selected by cfg.Backend.
func NewFileStorage(ctx context.Context, cfg config.Storage) (FileStorage, error) {
	switch cfg.Backend {
	case "", config.BackendLocal:
		base := cfg.BaseDir
		if base == "" {
			base = file.DefaultBasePath()
		}

		return file.NewStorage(base), nil
	case config.BackendMinio:
		s, err := bucket.NewStorage(ctx, cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.BucketName, cfg.UseSSL)
		if err != nil {
			return nil, err
		}

		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// NewRunner wires codec, processor and worker pool from cfg.
func NewRunner(cfg config.Batch, fs FileStorage) *batch.Runner {
	c := codec.New(
		codec.WithJPEGQuality(cfg.JPEGQuality),
		codec.WithAutoOrientation(cfg.AutoOrient),
	)
	p := processor.New(fs, processor.WithCodec(c), processor.WithSuffix(cfg.Suffix))

	return batch.New(p, batch.WithWorkers(cfg.Workers))
}
