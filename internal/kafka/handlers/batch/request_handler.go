package batch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-filter/internal/model"
)

// service defines the interface for running batches.
type service interface {
	Run(ctx context.Context, req model.Request) (model.Outcome, error)
}

// RequestHandler handles Kafka messages carrying batch requests.
type RequestHandler struct {
	service service
}

// NewRequestHandler creates a new handler with the given service.
func NewRequestHandler(s service) *RequestHandler {
	return &RequestHandler{service: s}
}

// Handle unmarshals a model.Request from the message and runs it. Image
// failures are part of the outcome and do not make Handle fail.
func (h *RequestHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var req model.Request
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return fmt.Errorf("unmarshal request: %w", err)
	}

	outcome, err := h.service.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("run batch: %w", err)
	}

	zlog.Logger.Info().
		Str("batch", outcome.ID.String()).
		Int("succeeded", outcome.Succeeded).
		Int("failed", outcome.Failed).
		Msg("batch processed")

	return nil
}
