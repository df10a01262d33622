package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/services"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

// MoveBlockCommand reassigns a block's technician and time range. A nil
// TechnicianID moves the block to the unassigned bucket.
type MoveBlockCommand struct {
	BlockID      uuid.UUID `validate:"required"`
	TechnicianID *uuid.UUID
	StartTime    time.Time `validate:"required"`
	EndTime      time.Time `validate:"required"`
}

// MoveBlockResult is the outcome of a move.
type MoveBlockResult struct {
	Success  bool
	Conflict bool
	BlockID  uuid.UUID
	// Tier is the placement path that served the move.
	Tier services.Tier
	// ConflictChecked is false when the degraded tier left the flag untouched.
	ConflictChecked bool
}

// MoveBlockHandler handles the MoveBlockCommand.
type MoveBlockHandler struct {
	blocks       domain.BlockRepository
	technicians  domain.TechnicianDirectory
	orchestrator *services.PlacementOrchestrator
	support      *Support
}

// NewMoveBlockHandler creates a new MoveBlockHandler.
func NewMoveBlockHandler(
	blocks domain.BlockRepository,
	technicians domain.TechnicianDirectory,
	orchestrator *services.PlacementOrchestrator,
	support *Support,
) *MoveBlockHandler {
	return &MoveBlockHandler{
		blocks:       blocks,
		technicians:  technicians,
		orchestrator: orchestrator,
		support:      support,
	}
}

// Handle moves the block through the placement orchestrator. A degraded
// move succeeds without surfacing the fallback.
func (h *MoveBlockHandler) Handle(ctx context.Context, cmd MoveBlockCommand) (*MoveBlockResult, error) {
	caller, err := h.support.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	tr, err := domain.NewTimeRange(cmd.StartTime, cmd.EndTime)
	if err != nil {
		return nil, err
	}

	block, err := h.blocks.FindByID(ctx, cmd.BlockID)
	if err != nil {
		return nil, err
	}
	if _, err := checkTechnician(ctx, h.technicians, block.OrganizationID(), cmd.TechnicianID); err != nil {
		return nil, err
	}

	outcome, err := h.orchestrator.Move(ctx, block.ID(), cmd.TechnicianID, tr,
		func(txCtx context.Context, outcome services.MoveOutcome) error {
			return h.support.record(txCtx, caller, domain.NewBlockMoved(
				block.OrganizationID(),
				block.ID(),
				cmd.TechnicianID,
				block.StartTime(),
				tr,
				outcome.Conflict,
				outcome.ConflictChecked(),
				string(outcome.Tier),
			))
		})
	if err != nil {
		return nil, err
	}

	h.support.invalidate(ctx, block.OrganizationID(), block.StartTime(), tr.Start)
	return &MoveBlockResult{
		Success:         outcome.Success,
		Conflict:        outcome.Conflict,
		BlockID:         outcome.BlockID,
		Tier:            outcome.Tier,
		ConflictChecked: outcome.ConflictChecked(),
	}, nil
}
