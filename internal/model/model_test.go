package model

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aliskhannn/image-filter/internal/filter"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{fmt.Errorf("open a.png: %w", ErrDecode), KindDecode},
		{fmt.Errorf("apply: %w", filter.ErrInvalidFormat), KindInvalidFormat},
		{fmt.Errorf("save: %w", ErrDestinationExists), KindDestinationExists},
		{fmt.Errorf("png: %w", ErrEncode), KindEncode},
		{ErrCanceled, KindCanceled},
		{context.Canceled, KindCanceled},
		{errors.New("disk full"), KindIO},
		{fmt.Errorf("write: %w", ErrIO), KindIO},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err), "%v", tt.err)
	}
}

func TestOutcome_TallyAndViews(t *testing.T) {
	o := Outcome{Results: []Result{
		{Index: 0, Stage: StageSucceeded},
		{Index: 1, Stage: StageFailed, Kind: KindDecode},
		{Index: 2, Stage: StageSucceeded},
	}}
	o.Tally()

	assert.Equal(t, 2, o.Succeeded)
	assert.Equal(t, 1, o.Failed)
	assert.False(t, o.OK())

	succ := o.Successes()
	assert.Len(t, succ, 2)
	assert.Equal(t, 0, succ[0].Index)
	assert.Equal(t, 2, succ[1].Index)
	assert.Equal(t, 1, o.Failures()[0].Index)

	assert.True(t, Outcome{}.OK())
}

func TestStage_Terminal(t *testing.T) {
	for _, s := range []Stage{StagePending, StageDecoding, StageTransforming, StagePersisting} {
		assert.False(t, s.Terminal(), s)
	}
	assert.True(t, StageSucceeded.Terminal())
	assert.True(t, StageFailed.Terminal())
}
