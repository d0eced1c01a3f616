package batch

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/aliskhannn/image-filter/internal/model"
)

// MemoryRepository keeps outcomes in process memory. It is used when no
// database is configured.
type MemoryRepository struct {
	mu       sync.RWMutex
	outcomes map[uuid.UUID]model.Outcome
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{outcomes: make(map[uuid.UUID]model.Outcome)}
}

// SaveOutcome stores a copy of o, replacing any outcome with the same ID.
func (r *MemoryRepository) SaveOutcome(_ context.Context, o model.Outcome) error {
	o.Results = append([]model.Result(nil), o.Results...)

	r.mu.Lock()
	r.outcomes[o.ID] = o
	r.mu.Unlock()

	return nil
}

// GetOutcome returns the outcome stored under id.
func (r *MemoryRepository) GetOutcome(_ context.Context, id uuid.UUID) (model.Outcome, error) {
	r.mu.RLock()
	o, ok := r.outcomes[id]
	r.mu.RUnlock()

	if !ok {
		return model.Outcome{}, ErrBatchNotFound
	}

	return o, nil
}
