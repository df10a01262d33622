package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/services"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	sharedApplication "github.com/iworkr/iworkr-stack-sub004/internal/shared/application"
)

// UpdateBlockCommand applies a partial update to a block.
type UpdateBlockCommand struct {
	BlockID uuid.UUID `validate:"required"`
	Patch   domain.BlockPatch
}

// UpdateBlockHandler handles the UpdateBlockCommand.
type UpdateBlockHandler struct {
	blocks      domain.BlockRepository
	technicians domain.TechnicianDirectory
	detector    *services.ConflictDetector
	support     *Support
}

// NewUpdateBlockHandler creates a new UpdateBlockHandler.
func NewUpdateBlockHandler(
	blocks domain.BlockRepository,
	technicians domain.TechnicianDirectory,
	detector *services.ConflictDetector,
	support *Support,
) *UpdateBlockHandler {
	return &UpdateBlockHandler{
		blocks:      blocks,
		technicians: technicians,
		detector:    detector,
		support:     support,
	}
}

// Handle merges the patch into the stored block. The conflict detector runs
// only when technician, start or end changed, against the merged values.
// Read and write are separate statements without a timeline lock, so a
// concurrent placement can interleave between them.
func (h *UpdateBlockHandler) Handle(ctx context.Context, cmd UpdateBlockCommand) (*domain.ScheduleBlock, error) {
	caller, err := h.support.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	var (
		block    *domain.ScheduleBlock
		oldStart time.Time
	)
	err = sharedApplication.WithUnitOfWork(ctx, h.support.uow, func(txCtx context.Context) error {
		var err error
		block, err = h.blocks.FindByID(txCtx, cmd.BlockID)
		if err != nil {
			return err
		}
		oldStart = block.StartTime()
		if cmd.Patch.IsEmpty() {
			return nil
		}

		if cmd.Patch.TechnicianID.Set {
			name, err := checkTechnician(txCtx, h.technicians, block.OrganizationID(), cmd.Patch.TechnicianID.Value)
			if err != nil {
				return err
			}
			block.SetTechnicianName(name)
		}

		placementChanged, err := block.Apply(cmd.Patch)
		if err != nil {
			return err
		}
		if placementChanged {
			id := block.ID()
			conflict, err := h.detector.Check(txCtx, domain.ConflictQuery{
				OrganizationID: block.OrganizationID(),
				TechnicianID:   block.TechnicianID(),
				Range:          block.TimeRange(),
				ExcludeBlockID: &id,
			})
			if err != nil {
				return err
			}
			block.MarkConflict(conflict)
		}

		if err := h.blocks.Update(txCtx, block); err != nil {
			return err
		}
		return h.support.record(txCtx, caller, domain.NewBlockUpdated(block, placementChanged))
	})
	if err != nil {
		return nil, err
	}

	if !cmd.Patch.IsEmpty() {
		h.support.flagged("update_block", block.IsConflict())
		h.support.invalidate(ctx, block.OrganizationID(), oldStart, block.StartTime())
	}
	return block, nil
}
