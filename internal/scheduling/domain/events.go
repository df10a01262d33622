package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/iworkr/iworkr-stack-sub004/internal/shared/domain"
)

const (
	AggregateTypeBlock = "ScheduleBlock"
	AggregateTypeEvent = "ScheduleEvent"

	RoutingKeyBlockCreated = "scheduling.block.created"
	RoutingKeyBlockUpdated = "scheduling.block.updated"
	RoutingKeyBlockMoved   = "scheduling.block.moved"
	RoutingKeyBlockResized = "scheduling.block.resized"
	RoutingKeyBlockDeleted = "scheduling.block.deleted"
	RoutingKeyJobAssigned  = "scheduling.job.assigned"
	RoutingKeyEventCreated = "scheduling.event.created"
	RoutingKeyEventDeleted = "scheduling.event.deleted"
)

// BlockCreated is emitted when a block is placed directly.
type BlockCreated struct {
	sharedDomain.BaseEvent
	OrganizationID uuid.UUID  `json:"organization_id"`
	BlockID        uuid.UUID  `json:"block_id"`
	TechnicianID   *uuid.UUID `json:"technician_id,omitempty"`
	JobID          *uuid.UUID `json:"job_id,omitempty"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Conflict       bool       `json:"conflict"`
}

func NewBlockCreated(b *ScheduleBlock) *BlockCreated {
	return &BlockCreated{
		BaseEvent:      sharedDomain.NewBaseEvent(b.ID(), AggregateTypeBlock, RoutingKeyBlockCreated),
		OrganizationID: b.OrganizationID(),
		BlockID:        b.ID(),
		TechnicianID:   b.TechnicianID(),
		JobID:          b.JobID(),
		StartTime:      b.StartTime(),
		EndTime:        b.EndTime(),
		Conflict:       b.IsConflict(),
	}
}

// BlockUpdated is emitted after a partial update.
type BlockUpdated struct {
	sharedDomain.BaseEvent
	OrganizationID   uuid.UUID   `json:"organization_id"`
	BlockID          uuid.UUID   `json:"block_id"`
	Status           BlockStatus `json:"status"`
	PlacementChanged bool        `json:"placement_changed"`
	Conflict         bool        `json:"conflict"`
}

func NewBlockUpdated(b *ScheduleBlock, placementChanged bool) *BlockUpdated {
	return &BlockUpdated{
		BaseEvent:        sharedDomain.NewBaseEvent(b.ID(), AggregateTypeBlock, RoutingKeyBlockUpdated),
		OrganizationID:   b.OrganizationID(),
		BlockID:          b.ID(),
		Status:           b.Status(),
		PlacementChanged: placementChanged,
		Conflict:         b.IsConflict(),
	}
}

// BlockMoved is emitted when a block changes technician or time.
type BlockMoved struct {
	sharedDomain.BaseEvent
	OrganizationID  uuid.UUID  `json:"organization_id"`
	BlockID         uuid.UUID  `json:"block_id"`
	TechnicianID    *uuid.UUID `json:"technician_id,omitempty"`
	OldStartTime    time.Time  `json:"old_start_time"`
	NewStartTime    time.Time  `json:"new_start_time"`
	NewEndTime      time.Time  `json:"new_end_time"`
	Conflict        bool       `json:"conflict"`
	ConflictChecked bool       `json:"conflict_checked"`
	Tier            string     `json:"tier"`
}

func NewBlockMoved(organizationID, blockID uuid.UUID, technicianID *uuid.UUID, oldStart time.Time, to TimeRange, conflict, checked bool, tier string) *BlockMoved {
	return &BlockMoved{
		BaseEvent:       sharedDomain.NewBaseEvent(blockID, AggregateTypeBlock, RoutingKeyBlockMoved),
		OrganizationID:  organizationID,
		BlockID:         blockID,
		TechnicianID:    technicianID,
		OldStartTime:    oldStart,
		NewStartTime:    to.Start,
		NewEndTime:      to.End,
		Conflict:        conflict,
		ConflictChecked: checked,
		Tier:            tier,
	}
}

// BlockResized is emitted when only the end time changes.
type BlockResized struct {
	sharedDomain.BaseEvent
	OrganizationID uuid.UUID `json:"organization_id"`
	BlockID        uuid.UUID `json:"block_id"`
	OldEndTime     time.Time `json:"old_end_time"`
	NewEndTime     time.Time `json:"new_end_time"`
}

func NewBlockResized(b *ScheduleBlock, oldEnd time.Time) *BlockResized {
	return &BlockResized{
		BaseEvent:      sharedDomain.NewBaseEvent(b.ID(), AggregateTypeBlock, RoutingKeyBlockResized),
		OrganizationID: b.OrganizationID(),
		BlockID:        b.ID(),
		OldEndTime:     oldEnd,
		NewEndTime:     b.EndTime(),
	}
}

// BlockDeleted is emitted after a hard delete.
type BlockDeleted struct {
	sharedDomain.BaseEvent
	OrganizationID uuid.UUID `json:"organization_id"`
	BlockID        uuid.UUID `json:"block_id"`
}

func NewBlockDeleted(b *ScheduleBlock) *BlockDeleted {
	return &BlockDeleted{
		BaseEvent:      sharedDomain.NewBaseEvent(b.ID(), AggregateTypeBlock, RoutingKeyBlockDeleted),
		OrganizationID: b.OrganizationID(),
		BlockID:        b.ID(),
	}
}

// JobAssigned is emitted when a backlog job is promoted into a block.
type JobAssigned struct {
	sharedDomain.BaseEvent
	OrganizationID uuid.UUID `json:"organization_id"`
	BlockID        uuid.UUID `json:"block_id"`
	JobID          uuid.UUID `json:"job_id"`
	TechnicianID   uuid.UUID `json:"technician_id"`
	Conflict       bool      `json:"conflict"`
}

func NewJobAssigned(organizationID, blockID, jobID, technicianID uuid.UUID, conflict bool) *JobAssigned {
	return &JobAssigned{
		BaseEvent:      sharedDomain.NewBaseEvent(blockID, AggregateTypeBlock, RoutingKeyJobAssigned),
		OrganizationID: organizationID,
		BlockID:        blockID,
		JobID:          jobID,
		TechnicianID:   technicianID,
		Conflict:       conflict,
	}
}

// EventCreated is emitted when a personal entry is added.
type EventCreated struct {
	sharedDomain.BaseEvent
	OrganizationID  uuid.UUID `json:"organization_id"`
	ScheduleEventID uuid.UUID `json:"schedule_event_id"`
	UserID          uuid.UUID `json:"user_id"`
	Type            EventType `json:"type"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
}

func NewEventCreated(e *ScheduleEvent) *EventCreated {
	return &EventCreated{
		BaseEvent:       sharedDomain.NewBaseEvent(e.ID(), AggregateTypeEvent, RoutingKeyEventCreated),
		OrganizationID:  e.OrganizationID(),
		ScheduleEventID: e.ID(),
		UserID:          e.UserID(),
		Type:            e.Type(),
		StartTime:       e.StartTime(),
		EndTime:         e.EndTime(),
	}
}

// EventDeleted is emitted when a personal entry is removed.
type EventDeleted struct {
	sharedDomain.BaseEvent
	OrganizationID  uuid.UUID `json:"organization_id"`
	ScheduleEventID uuid.UUID `json:"schedule_event_id"`
}

func NewEventDeleted(e *ScheduleEvent) *EventDeleted {
	return &EventDeleted{
		BaseEvent:       sharedDomain.NewBaseEvent(e.ID(), AggregateTypeEvent, RoutingKeyEventDeleted),
		OrganizationID:  e.OrganizationID(),
		ScheduleEventID: e.ID(),
	}
}
