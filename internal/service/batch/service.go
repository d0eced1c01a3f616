package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-filter/internal/model"
)

// ErrInvalidRequest is returned for requests rejected before any image runs.
var ErrInvalidRequest = errors.New("invalid request")

// runner executes a batch and blocks until every image is terminal.
type runner interface {
	Run(ctx context.Context, req model.Request) model.Outcome
}

// repository persists batch outcomes.
type repository interface {
	SaveOutcome(ctx context.Context, o model.Outcome) error
	GetOutcome(ctx context.Context, id uuid.UUID) (model.Outcome, error)
}

// publisher announces finished batches (e.g., to Kafka).
type publisher interface {
	Publish(ctx context.Context, o model.Outcome) error
}

// Service provides business logic for batch runs.
// It runs the batch, stores its outcome and publishes it.
type Service struct {
	runner    runner
	repo      repository
	publisher publisher
}

// NewService creates a new Service. p may be nil when nothing should be
// notified about finished batches.
func NewService(r runner, repo repository, p publisher) *Service {
	return &Service{runner: r, repo: repo, publisher: p}
}

// Run executes req and returns its outcome. A batch where every image failed
// is still a successful call; the returned error only reports failures to
// store or publish the outcome, in which case the outcome is returned too.
//
// Requests come from remote callers, so the destination must stay inside the
// storage root: absolute paths and paths escaping it with ".." are rejected
// with ErrInvalidRequest.
func (s *Service) Run(ctx context.Context, req model.Request) (model.Outcome, error) {
	if err := checkDestination(req.Destination); err != nil {
		return model.Outcome{}, err
	}

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	outcome := s.runner.Run(ctx, req)

	// Detach bookkeeping from the caller so a finished batch is always recorded.
	ctx = context.WithoutCancel(ctx)

	var errs []error
	if err := s.repo.SaveOutcome(ctx, outcome); err != nil {
		errs = append(errs, fmt.Errorf("run: failed to save outcome: %w", err))
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, outcome); err != nil {
			errs = append(errs, fmt.Errorf("run: failed to publish outcome: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		zlog.Logger.Err(err).Str("batch", outcome.ID.String()).Msg("failed to record batch")
		return outcome, err
	}

	return outcome, nil
}

func checkDestination(dest string) error {
	if dest == "" {
		return nil
	}

	if filepath.IsAbs(dest) || strings.HasPrefix(dest, "/") {
		return fmt.Errorf("%w: destination %q must be relative", ErrInvalidRequest, dest)
	}

	clean := filepath.Clean(dest)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: destination %q escapes the storage root", ErrInvalidRequest, dest)
	}

	return nil
}

// GetOutcome returns a previously recorded batch.
func (s *Service) GetOutcome(ctx context.Context, id uuid.UUID) (model.Outcome, error) {
	o, err := s.repo.GetOutcome(ctx, id)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("get: %w", err)
	}

	return o, nil
}
