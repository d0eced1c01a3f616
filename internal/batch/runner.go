// Package batch fans a batch request out over a bounded worker pool and
// joins the per-image results into a single outcome.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-filter/internal/model"
	"github.com/aliskhannn/image-filter/internal/processor"
)

// unitProcessor runs one image through its pipeline.
type unitProcessor interface {
	Process(ctx context.Context, u processor.Unit) model.Result
}

// Runner executes batches on at most workers goroutines.
type Runner struct {
	processor unitProcessor
	workers   int
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of images processed at the same time.
// Values below 1 keep the default.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n >= 1 {
			r.workers = n
		}
	}
}

// New creates a Runner. The default pool size is the number of CPUs.
func New(p unitProcessor, opts ...Option) *Runner {
	r := &Runner{
		processor: p,
		workers:   max(runtime.NumCPU(), 1),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Workers returns the pool size.
func (r *Runner) Workers() int {
	return r.workers
}

// Run processes every path in req and blocks until all of them are terminal.
//
// Results are reported in input order regardless of completion order. Units
// not yet started when ctx is canceled fail with model.KindCanceled; units
// already running are allowed to finish so no output is left half written.
func (r *Runner) Run(ctx context.Context, req model.Request) model.Outcome {
	out := model.Outcome{
		ID:          req.ID,
		Filter:      req.Filter,
		Destination: req.Destination,
		Results:     make([]model.Result, len(req.Paths)),
		StartedAt:   time.Now().UTC(),
	}
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}

	if len(req.Paths) == 0 {
		out.FinishedAt = out.StartedAt
		return out
	}

	zlog.Logger.Info().
		Str("batch", out.ID.String()).
		Str("filter", req.Filter.String()).
		Int("images", len(req.Paths)).
		Int("workers", r.workers).
		Msg("starting batch")

	// Work started by a unit is detached from cancellation.
	unitCtx := context.WithoutCancel(ctx)

	// Each unit owns exactly one slot of out.Results, so no lock is needed;
	// Wait is the barrier that publishes the writes.
	p := pool.New().WithMaxGoroutines(r.workers)
	for i, path := range req.Paths {
		u := processor.Unit{
			Index:       i,
			Source:      path,
			Filter:      req.Filter,
			Destination: req.Destination,
			Overwrite:   req.Overwrite,
		}

		// Go blocks while all workers are busy.
		p.Go(func() {
			defer func() {
				if v := recover(); v != nil {
					out.Results[u.Index] = panicked(u, v)
				}
			}()

			if ctx.Err() != nil {
				out.Results[u.Index] = canceled(u)
				return
			}

			out.Results[u.Index] = r.processor.Process(unitCtx, u)
		})
	}
	p.Wait()

	out.Tally()
	out.FinishedAt = time.Now().UTC()

	zlog.Logger.Info().
		Str("batch", out.ID.String()).
		Int("succeeded", out.Succeeded).
		Int("failed", out.Failed).
		Dur("took", out.FinishedAt.Sub(out.StartedAt)).
		Msg("batch finished")

	return out
}

func canceled(u processor.Unit) model.Result {
	return model.Result{
		Index:    u.Index,
		Source:   u.Source,
		Stage:    model.StageFailed,
		FailedAt: model.StagePending,
		Kind:     model.KindCanceled,
		Error:    model.ErrCanceled.Error(),
	}
}

// panicked reports a unit whose processor panicked. The stage it was in is
// unknown at this level, so FailedAt stays empty.
func panicked(u processor.Unit, v any) model.Result {
	err := fmt.Errorf("%w: panic: %v", model.ErrIO, v)

	zlog.Logger.Error().
		Err(err).
		Str("source", u.Source).
		Msg("unit panicked")

	return model.Result{
		Index:  u.Index,
		Source: u.Source,
		Stage:  model.StageFailed,
		Kind:   model.KindIO,
		Error:  err.Error(),
	}
}
