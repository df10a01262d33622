package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

// ListEventsQuery lists personal time entries for a day.
type ListEventsQuery struct {
	OrganizationID uuid.UUID
	Date           time.Time
}

// ListEventsHandler handles the ListEventsQuery.
type ListEventsHandler struct {
	events domain.EventRepository
}

// NewListEventsHandler creates a new ListEventsHandler.
func NewListEventsHandler(events domain.EventRepository) *ListEventsHandler {
	return &ListEventsHandler{events: events}
}

func (h *ListEventsHandler) Handle(ctx context.Context, query ListEventsQuery) ([]EventDTO, error) {
	dayStart, dayEnd := domain.DayBounds(query.Date)
	events, err := h.events.ListByDay(ctx, query.OrganizationID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	return toEventDTOs(events), nil
}
