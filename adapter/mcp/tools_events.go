package mcp

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/commands"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
)

type eventCreateInput struct {
	OrganizationID string `json:"organization_id,omitempty"`
	Type           string `json:"type" jsonschema:"required"`
	Title          string `json:"title" jsonschema:"required"`
	Date           string `json:"date,omitempty"`
	StartTime      string `json:"start_time" jsonschema:"required"`
	EndTime        string `json:"end_time" jsonschema:"required"`
	Notes          string `json:"notes,omitempty"`
}

type eventDeleteInput struct {
	EventID string `json:"event_id" jsonschema:"required"`
}

func registerEventTools(srv *mcp.Server, deps ToolDependencies) error {
	t := newScheduleTools(deps.App)

	srv.Tool("schedule.list_events").
		Description("List the current user's personal events for a day").
		Handler(t.listEvents)

	srv.Tool("schedule.create_event").
		Description("Create a personal event (break, meeting, personal, unavailable)").
		Handler(t.createEvent)

	srv.Tool("schedule.delete_event").
		Description("Delete a personal event").
		Handler(t.deleteEvent)

	return nil
}

func (t *scheduleTools) listEvents(ctx context.Context, input scheduleDayInput) ([]queries.EventDTO, error) {
	if t.app == nil || t.app.ListEventsHandler == nil {
		return nil, errNoDatabase
	}
	orgID, err := organizationID(t.app, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(input.Date, t.now())
	if err != nil {
		return nil, err
	}
	return t.app.ListEventsHandler.Handle(ctx, queries.ListEventsQuery{OrganizationID: orgID, Date: date})
}

func (t *scheduleTools) createEvent(ctx context.Context, input eventCreateInput) (*queries.EventDTO, error) {
	if t.app == nil || t.app.CreateEventHandler == nil {
		return nil, errNoDatabase
	}
	orgID, err := organizationID(t.app, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(input.Date, t.now())
	if err != nil {
		return nil, err
	}
	start, err := parseInstant("start_time", date, input.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseInstant("end_time", date, input.EndTime)
	if err != nil {
		return nil, err
	}

	event, err := t.app.CreateEventHandler.Handle(ctx, commands.CreateEventCommand{
		OrganizationID: orgID,
		Type:           strings.ToLower(input.Type),
		Title:          input.Title,
		StartTime:      start,
		EndTime:        end,
		Notes:          optionalString(input.Notes),
	})
	if err != nil {
		return nil, err
	}
	dto := queries.ToEventDTO(event)
	return &dto, nil
}

func (t *scheduleTools) deleteEvent(ctx context.Context, input eventDeleteInput) (map[string]any, error) {
	if t.app == nil || t.app.DeleteEventHandler == nil {
		return nil, errNoDatabase
	}
	eventID, err := parseUUID(input.EventID)
	if err != nil {
		return nil, err
	}
	if err := t.app.DeleteEventHandler.Handle(ctx, commands.DeleteEventCommand{EventID: eventID}); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": true, "event_id": eventID.String()}, nil
}
