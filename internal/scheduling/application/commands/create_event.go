package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	sharedApplication "github.com/iworkr/iworkr-stack-sub004/internal/shared/application"
)

// CreateEventCommand records personal time for the caller.
type CreateEventCommand struct {
	OrganizationID uuid.UUID `validate:"required"`
	Type           string    `validate:"required,oneof=break meeting personal unavailable"`
	Title          string    `validate:"required,max=200"`
	StartTime      time.Time `validate:"required"`
	EndTime        time.Time `validate:"required"`
	Notes          *string
}

// CreateEventHandler handles the CreateEventCommand.
type CreateEventHandler struct {
	events  domain.EventRepository
	support *Support
}

// NewCreateEventHandler creates a new CreateEventHandler.
func NewCreateEventHandler(events domain.EventRepository, support *Support) *CreateEventHandler {
	return &CreateEventHandler{events: events, support: support}
}

// Handle creates the event owned by the caller. Events take no part in
// conflict detection.
func (h *CreateEventHandler) Handle(ctx context.Context, cmd CreateEventCommand) (*domain.ScheduleEvent, error) {
	caller, err := h.support.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}

	event, err := domain.NewScheduleEvent(domain.EventParams{
		OrganizationID: cmd.OrganizationID,
		UserID:         caller.UserID,
		Type:           domain.EventType(cmd.Type),
		Title:          cmd.Title,
		StartTime:      cmd.StartTime,
		EndTime:        cmd.EndTime,
		Notes:          cmd.Notes,
	})
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.support.uow, func(txCtx context.Context) error {
		if err := h.events.Create(txCtx, event); err != nil {
			return err
		}
		return h.support.record(txCtx, caller, domain.NewEventCreated(event))
	})
	if err != nil {
		return nil, err
	}

	h.support.invalidate(ctx, event.OrganizationID(), event.StartTime())
	return event, nil
}
