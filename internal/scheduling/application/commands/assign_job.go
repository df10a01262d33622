package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/services"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

// AssignJobCommand promotes a backlog job into a block.
type AssignJobCommand struct {
	OrganizationID uuid.UUID `validate:"required"`
	JobID          uuid.UUID `validate:"required"`
	TechnicianID   uuid.UUID `validate:"required"`
	StartTime      time.Time `validate:"required"`
	EndTime        time.Time `validate:"required"`
}

// AssignJobResult holds the created block and the job it references.
type AssignJobResult struct {
	Block    *domain.ScheduleBlock
	JobID    uuid.UUID
	Conflict bool
}

// AssignJobHandler handles the AssignJobCommand.
type AssignJobHandler struct {
	blocks       domain.BlockRepository
	technicians  domain.TechnicianDirectory
	orchestrator *services.PlacementOrchestrator
	support      *Support
}

// NewAssignJobHandler creates a new AssignJobHandler.
func NewAssignJobHandler(
	blocks domain.BlockRepository,
	technicians domain.TechnicianDirectory,
	orchestrator *services.PlacementOrchestrator,
	support *Support,
) *AssignJobHandler {
	return &AssignJobHandler{
		blocks:       blocks,
		technicians:  technicians,
		orchestrator: orchestrator,
		support:      support,
	}
}

// Handle runs the atomic assignment. Either the block exists and the job
// has left the backlog, or nothing was written.
func (h *AssignJobHandler) Handle(ctx context.Context, cmd AssignJobCommand) (*AssignJobResult, error) {
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
	if _, err := checkTechnician(ctx, h.technicians, cmd.OrganizationID, &cmd.TechnicianID); err != nil {
		return nil, err
	}

	params := domain.AssignJobParams{
		BlockID:        uuid.New(),
		OrganizationID: cmd.OrganizationID,
		JobID:          cmd.JobID,
		TechnicianID:   cmd.TechnicianID,
		Range:          tr,
	}
	result, err := h.orchestrator.Assign(ctx, params, func(txCtx context.Context, result domain.AssignResult) error {
		return h.support.record(txCtx, caller, domain.NewJobAssigned(
			cmd.OrganizationID, result.BlockID, result.JobID, cmd.TechnicianID, result.Conflict,
		))
	})
	if err != nil {
		return nil, err
	}

	h.support.flagged("assign_job", result.Conflict)
	h.support.invalidate(ctx, cmd.OrganizationID, tr.Start)

	block, err := h.blocks.FindByID(ctx, result.BlockID)
	if err != nil {
		return nil, err
	}
	return &AssignJobResult{Block: block, JobID: result.JobID, Conflict: result.Conflict}, nil
}
