package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	sharedApplication "github.com/iworkr/iworkr-stack-sub004/internal/shared/application"
)

// DeleteEventCommand removes a schedule event.
type DeleteEventCommand struct {
	EventID uuid.UUID `validate:"required"`
}

// DeleteEventHandler handles the DeleteEventCommand.
type DeleteEventHandler struct {
	events  domain.EventRepository
	support *Support
}

// NewDeleteEventHandler creates a new DeleteEventHandler.
func NewDeleteEventHandler(events domain.EventRepository, support *Support) *DeleteEventHandler {
	return &DeleteEventHandler{events: events, support: support}
}

func (h *DeleteEventHandler) Handle(ctx context.Context, cmd DeleteEventCommand) error {
	caller, err := h.support.caller(ctx)
	if err != nil {
		return err
	}
	if err := validateCommand(cmd); err != nil {
		return err
	}

	event, err := sharedApplication.InUnitOfWork(ctx, h.support.uow, func(txCtx context.Context) (*domain.ScheduleEvent, error) {
		event, err := h.events.FindByID(txCtx, cmd.EventID)
		if err != nil {
			return nil, err
		}
		if err := h.events.Delete(txCtx, event.ID()); err != nil {
			return nil, err
		}
		if err := h.support.record(txCtx, caller, domain.NewEventDeleted(event)); err != nil {
			return nil, err
		}
		return event, nil
	})
	if err != nil {
		return err
	}

	h.support.invalidate(ctx, event.OrganizationID(), event.StartTime())
	return nil
}
