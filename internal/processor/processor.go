package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-filter/internal/codec"
	"github.com/aliskhannn/image-filter/internal/filter"
	"github.com/aliskhannn/image-filter/internal/model"
	"github.com/aliskhannn/image-filter/internal/pixel"
)

// DefaultSuffix is appended to the base name of every processed file.
const DefaultSuffix = "_processed"

// fileStorage defines the interface for file storage.
// It allows saving files to a backend (e.g., local FS, S3, MinIO).
type fileStorage interface {
	Save(ctx context.Context, dir, filename string, src io.Reader, overwrite bool) (string, error)
}

// imageCodec decodes source images and encodes filtered buffers.
type imageCodec interface {
	Decode(path string) (*pixel.Buffer, imaging.Format, error)
	Encode(w io.Writer, buf *pixel.Buffer, format imaging.Format) error
}

// Unit is a single image to process.
type Unit struct {
	Index       int
	Source      string
	Filter      filter.Kind
	Destination string
	Overwrite   bool
}

// Processor runs the decode, transform and persist pipeline for one image.
type Processor struct {
	codec       imageCodec
	fileStorage fileStorage
	suffix      string
}

// Option configures a Processor.
type Option func(*Processor)

// WithCodec replaces the default imaging-backed codec.
func WithCodec(c imageCodec) Option {
	return func(p *Processor) { p.codec = c }
}

// WithSuffix sets the suffix inserted before the output extension.
func WithSuffix(suffix string) Option {
	return func(p *Processor) {
		if suffix != "" {
			p.suffix = suffix
		}
	}
}

// New creates a new Processor with the given file storage backend.
func New(fs fileStorage, opts ...Option) *Processor {
	p := &Processor{
		codec:       codec.New(),
		fileStorage: fs,
		suffix:      DefaultSuffix,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// OutputName derives "<base><suffix><ext>" from source, keeping the
// extension exactly as written.
func OutputName(source, suffix string) string {
	base := filepath.Base(source)
	ext := filepath.Ext(base)

	return strings.TrimSuffix(base, ext) + suffix + ext
}

// Process takes u from pending to a terminal stage. Errors never escape: they
// are recorded on the returned result together with the stage that failed.
//
// A panic inside the codec or the storage is recovered and reported as a
// model.KindIO failure of the stage that was running.
func (p *Processor) Process(ctx context.Context, u Unit) (res model.Result) {
	start := time.Now()
	res = model.Result{
		Index:  u.Index,
		Source: u.Source,
		Stage:  model.StagePending,
	}

	fail := func(stage model.Stage, err error) model.Result {
		res.Stage = model.StageFailed
		res.FailedAt = stage
		res.Kind = model.KindOf(err)
		res.Error = err.Error()
		res.Duration = time.Since(start)

		zlog.Logger.Error().
			Err(err).
			Str("source", u.Source).
			Str("stage", string(stage)).
			Str("kind", string(res.Kind)).
			Msg("failed to process image")

		return res
	}

	defer func() {
		if v := recover(); v != nil {
			res = fail(res.Stage, fmt.Errorf("%w: panic: %v", model.ErrIO, v))
		}
	}()

	// Decode the original image.
	res.Stage = model.StageDecoding
	buf, format, err := p.codec.Decode(u.Source)
	if err != nil {
		return fail(res.Stage, err)
	}

	// Apply the color transform in place.
	res.Stage = model.StageTransforming
	if err := filter.ApplyKind(buf, u.Filter); err != nil {
		return fail(res.Stage, fmt.Errorf("failed to apply %s: %w", u.Filter, err))
	}

	// Encode the filtered buffer fully before touching the destination.
	res.Stage = model.StagePersisting
	encoded := bytes.NewBuffer(nil)
	if err := p.codec.Encode(encoded, buf, format); err != nil {
		return fail(res.Stage, err)
	}

	dst, err := p.fileStorage.Save(ctx, u.Destination, OutputName(u.Source, p.suffix), encoded, u.Overwrite)
	if err != nil {
		return fail(res.Stage, err)
	}

	res.Stage = model.StageSucceeded
	res.Output = dst
	res.Duration = time.Since(start)

	zlog.Logger.Debug().
		Str("source", u.Source).
		Str("output", dst).
		Dur("took", res.Duration).
		Msg("image processed")

	return res
}
