package batch

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-filter/internal/filter"
	"github.com/aliskhannn/image-filter/internal/model"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

type fakeService struct {
	calls []model.Request
}

func (f *fakeService) Run(_ context.Context, req model.Request) (model.Outcome, error) {
	f.calls = append(f.calls, req)
	return model.Outcome{ID: req.ID}, nil
}

func TestHandle_RunsRequest(t *testing.T) {
	svc := &fakeService{}
	h := NewRequestHandler(svc)

	id := uuid.New()
	msg := kafka.Message{Value: []byte(`{"id":"` + id.String() + `","paths":["a.png"],"filter":"grayscale"}`)}

	require.NoError(t, h.Handle(context.Background(), msg))
	require.Len(t, svc.calls, 1)
	assert.Equal(t, id, svc.calls[0].ID)
	assert.Equal(t, filter.Grayscale, svc.calls[0].Filter)
	assert.Equal(t, []string{"a.png"}, svc.calls[0].Paths)
}

func TestHandle_Malformed(t *testing.T) {
	svc := &fakeService{}
	h := NewRequestHandler(svc)

	assert.Error(t, h.Handle(context.Background(), kafka.Message{Value: []byte(`{"filter":"emboss"}`)}))
	assert.Error(t, h.Handle(context.Background(), kafka.Message{Value: []byte(`{`)}))
	assert.Empty(t, svc.calls)
}
