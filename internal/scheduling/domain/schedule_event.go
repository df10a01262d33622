package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/iworkr/iworkr-stack-sub004/internal/shared/domain"
)

// EventType classifies personal time entries.
type EventType string

const (
	EventTypeBreak       EventType = "break"
	EventTypeMeeting     EventType = "meeting"
	EventTypePersonal    EventType = "personal"
	EventTypeUnavailable EventType = "unavailable"
)

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeBreak, EventTypeMeeting, EventTypePersonal, EventTypeUnavailable:
		return true
	}
	return false
}

// ScheduleEvent is a break, meeting or other personal entry. It never takes
// part in block conflict detection.
type ScheduleEvent struct {
	sharedDomain.BaseEntity
	organizationID uuid.UUID
	userID         uuid.UUID
	eventType      EventType
	title          string
	timeRange      TimeRange
	notes          *string
}

// EventParams are the inputs for a new event.
type EventParams struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Type           EventType
	Title          string
	StartTime      time.Time
	EndTime        time.Time
	Notes          *string
}

// NewScheduleEvent validates params and creates an event.
func NewScheduleEvent(p EventParams) (*ScheduleEvent, error) {
	if p.OrganizationID == uuid.Nil {
		return nil, NewValidationError("organization_id", "is required")
	}
	if p.UserID == uuid.Nil {
		return nil, NewValidationError("user_id", "is required")
	}
	if !p.Type.IsValid() {
		return nil, NewValidationError("type", "must be one of break, meeting, personal, unavailable")
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, NewValidationError("title", "is required")
	}
	tr, err := NewTimeRange(p.StartTime, p.EndTime)
	if err != nil {
		return nil, err
	}

	return &ScheduleEvent{
		BaseEntity:     sharedDomain.NewBaseEntity(),
		organizationID: p.OrganizationID,
		userID:         p.UserID,
		eventType:      p.Type,
		title:          title,
		timeRange:      tr,
		notes:          p.Notes,
	}, nil
}

func (e *ScheduleEvent) OrganizationID() uuid.UUID { return e.organizationID }
func (e *ScheduleEvent) UserID() uuid.UUID         { return e.userID }
func (e *ScheduleEvent) Type() EventType           { return e.eventType }
func (e *ScheduleEvent) Title() string             { return e.title }
func (e *ScheduleEvent) StartTime() time.Time      { return e.timeRange.Start }
func (e *ScheduleEvent) EndTime() time.Time        { return e.timeRange.End }
func (e *ScheduleEvent) Notes() *string            { return e.notes }

// RehydrateScheduleEvent recreates an event from persisted state.
func RehydrateScheduleEvent(
	id, organizationID, userID uuid.UUID,
	eventType EventType,
	title string,
	start, end time.Time,
	notes *string,
	createdAt time.Time,
) *ScheduleEvent {
	return &ScheduleEvent{
		BaseEntity:     sharedDomain.RehydrateBaseEntity(id, createdAt, createdAt),
		organizationID: organizationID,
		userID:         userID,
		eventType:      eventType,
		title:          title,
		timeRange:      TimeRange{Start: start.UTC(), End: end.UTC()},
		notes:          notes,
	}
}
