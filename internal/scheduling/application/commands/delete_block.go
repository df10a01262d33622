package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	sharedApplication "github.com/iworkr/iworkr-stack-sub004/internal/shared/application"
)

// DeleteBlockCommand hard-deletes a block.
type DeleteBlockCommand struct {
	BlockID uuid.UUID `validate:"required"`
}

// DeleteBlockHandler handles the DeleteBlockCommand.
type DeleteBlockHandler struct {
	blocks  domain.BlockRepository
	support *Support
}

// NewDeleteBlockHandler creates a new DeleteBlockHandler.
func NewDeleteBlockHandler(blocks domain.BlockRepository, support *Support) *DeleteBlockHandler {
	return &DeleteBlockHandler{blocks: blocks, support: support}
}

// Handle deletes the block. Deleting a missing block returns ErrBlockNotFound.
func (h *DeleteBlockHandler) Handle(ctx context.Context, cmd DeleteBlockCommand) error {
	caller, err := h.support.caller(ctx)
	if err != nil {
		return err
	}
	if err := validateCommand(cmd); err != nil {
		return err
	}

	block, err := sharedApplication.InUnitOfWork(ctx, h.support.uow, func(txCtx context.Context) (*domain.ScheduleBlock, error) {
		block, err := h.blocks.FindByID(txCtx, cmd.BlockID)
		if err != nil {
			return nil, err
		}
		if err := h.blocks.Delete(txCtx, block.ID()); err != nil {
			return nil, err
		}
		if err := h.support.record(txCtx, caller, domain.NewBlockDeleted(block)); err != nil {
			return nil, err
		}
		return block, nil
	})
	if err != nil {
		return err
	}

	h.support.invalidate(ctx, block.OrganizationID(), block.StartTime())
	return nil
}
