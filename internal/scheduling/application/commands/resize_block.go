package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/services"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

// ResizeBlockCommand changes a block's end time.
type ResizeBlockCommand struct {
	BlockID uuid.UUID `validate:"required"`
	EndTime time.Time `validate:"required"`
}

// ResizeBlockHandler handles the ResizeBlockCommand.
type ResizeBlockHandler struct {
	orchestrator *services.PlacementOrchestrator
	support      *Support
}

// NewResizeBlockHandler creates a new ResizeBlockHandler.
func NewResizeBlockHandler(orchestrator *services.PlacementOrchestrator, support *Support) *ResizeBlockHandler {
	return &ResizeBlockHandler{orchestrator: orchestrator, support: support}
}

// Handle resizes the block. The conflict flag is not recomputed.
func (h *ResizeBlockHandler) Handle(ctx context.Context, cmd ResizeBlockCommand) (*domain.ScheduleBlock, error) {
	caller, err := h.support.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	block, err := h.orchestrator.Resize(ctx, cmd.BlockID, cmd.EndTime,
		func(txCtx context.Context, block *domain.ScheduleBlock, oldEnd time.Time) error {
			return h.support.record(txCtx, caller, domain.NewBlockResized(block, oldEnd))
		})
	if err != nil {
		return nil, err
	}

	h.support.invalidate(ctx, block.OrganizationID(), block.StartTime())
	return block, nil
}
