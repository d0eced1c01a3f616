package batch

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/image-filter/internal/model"
)

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.GetOutcome(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrBatchNotFound)

	o := model.Outcome{ID: uuid.New(), Results: []model.Result{{Index: 0, Stage: model.StageSucceeded}}}
	require.NoError(t, repo.SaveOutcome(ctx, o))

	// The stored copy is independent of the caller's slice.
	o.Results[0].Stage = model.StageFailed

	got, err := repo.GetOutcome(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageSucceeded, got.Results[0].Stage)
}
