package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/services"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	sharedApplication "github.com/iworkr/iworkr-stack-sub004/internal/shared/application"
)

// CreateBlockCommand contains the data needed to place a block directly.
type CreateBlockCommand struct {
	OrganizationID uuid.UUID `validate:"required"`
	TechnicianID   *uuid.UUID
	JobID          *uuid.UUID
	Title          string `validate:"required,max=200"`
	ClientName     *string
	Location       *string
	StartTime      time.Time `validate:"required"`
	EndTime        time.Time `validate:"required"`
	Status         string    `validate:"omitempty,oneof=scheduled en_route in_progress complete cancelled"`
	TravelMinutes  *int      `validate:"omitempty,gte=0"`
	Notes          *string
	Metadata       map[string]any
}

// CreateBlockHandler handles the CreateBlockCommand.
type CreateBlockHandler struct {
	blocks      domain.BlockRepository
	technicians domain.TechnicianDirectory
	detector    *services.ConflictDetector
	support     *Support
}

// NewCreateBlockHandler creates a new CreateBlockHandler.
func NewCreateBlockHandler(
	blocks domain.BlockRepository,
	technicians domain.TechnicianDirectory,
	detector *services.ConflictDetector,
	support *Support,
) *CreateBlockHandler {
	return &CreateBlockHandler{
		blocks:      blocks,
		technicians: technicians,
		detector:    detector,
		support:     support,
	}
}

// Handle runs the conflict detector and persists the block with the verdict
// in one unit of work. Existing blocks are never re-flagged.
func (h *CreateBlockHandler) Handle(ctx context.Context, cmd CreateBlockCommand) (*domain.ScheduleBlock, error) {
	caller, err := h.support.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	block, err := domain.NewScheduleBlock(domain.BlockParams{
		OrganizationID: cmd.OrganizationID,
		TechnicianID:   cmd.TechnicianID,
		JobID:          cmd.JobID,
		Title:          cmd.Title,
		ClientName:     cmd.ClientName,
		Location:       cmd.Location,
		StartTime:      cmd.StartTime,
		EndTime:        cmd.EndTime,
		Status:         domain.BlockStatus(cmd.Status),
		TravelMinutes:  cmd.TravelMinutes,
		Notes:          cmd.Notes,
		Metadata:       cmd.Metadata,
	})
	if err != nil {
		return nil, err
	}

	name, err := checkTechnician(ctx, h.technicians, cmd.OrganizationID, cmd.TechnicianID)
	if err != nil {
		return nil, err
	}
	block.SetTechnicianName(name)

	err = sharedApplication.WithUnitOfWork(ctx, h.support.uow, func(txCtx context.Context) error {
		conflict, err := h.detector.Check(txCtx, domain.ConflictQuery{
			OrganizationID: block.OrganizationID(),
			TechnicianID:   block.TechnicianID(),
			Range:          block.TimeRange(),
		})
		if err != nil {
			return err
		}
		block.MarkConflict(conflict)

		if err := h.blocks.Create(txCtx, block); err != nil {
			return err
		}
		return h.support.record(txCtx, caller, domain.NewBlockCreated(block))
	})
	if err != nil {
		return nil, err
	}

	h.support.flagged("create_block", block.IsConflict())
	h.support.invalidate(ctx, block.OrganizationID(), block.StartTime())
	return block, nil
}
