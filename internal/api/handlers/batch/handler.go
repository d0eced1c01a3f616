package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-filter/internal/api/respond"
	"github.com/aliskhannn/image-filter/internal/model"
	"github.com/aliskhannn/image-filter/internal/repository/batch"
	batchsvc "github.com/aliskhannn/image-filter/internal/service/batch"
)

// service defines the interface for batch operations.
type service interface {
	Run(ctx context.Context, req model.Request) (model.Outcome, error)
	GetOutcome(ctx context.Context, id uuid.UUID) (model.Outcome, error)
}

// Handler provides HTTP handlers for batch endpoints.
type Handler struct {
	service service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(s service) *Handler {
	return &Handler{service: s}
}

// Run decodes a model.Request from the body, processes the batch and responds
// with its outcome. Per-image failures are part of a 200 response.
func (h *Handler) Run(c *ginext.Context) {
	var req model.Request
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		zlog.Logger.Err(err).Msg("failed to decode batch request")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request: %v", err))
		return
	}

	outcome, err := h.service.Run(c.Request.Context(), req)
	if errors.Is(err, batchsvc.ErrInvalidRequest) {
		zlog.Logger.Warn().Err(err).Msg("rejected batch request")
		respond.Fail(c, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		// The batch ran; only recording it failed.
		zlog.Logger.Err(err).Str("batch", outcome.ID.String()).Msg("batch outcome not recorded")
	}

	respond.OK(c, outcome)
}

// Get returns a recorded batch outcome.
func (h *Handler) Get(c *ginext.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		zlog.Logger.Warn().Str("id", c.Param("id")).Msg("invalid batch id")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}

	outcome, err := h.service.GetOutcome(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, batch.ErrBatchNotFound) {
			respond.Fail(c, http.StatusNotFound, batch.ErrBatchNotFound)
			return
		}

		zlog.Logger.Err(err).Msg("failed to get batch")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to get batch"))
		return
	}

	respond.OK(c, outcome)
}
