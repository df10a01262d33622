package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BlockRepository persists schedule blocks. Every method joins the
// transaction carried by ctx, if any.
type BlockRepository interface {
	Create(ctx context.Context, block *ScheduleBlock) error
	Update(ctx context.Context, block *ScheduleBlock) error
	// UpdatePlacement overwrites technician and time range only. The stored
	// conflict flag is left as it was.
	UpdatePlacement(ctx context.Context, id uuid.UUID, technicianID *uuid.UUID, tr TimeRange) error
	// UpdateEndTime overwrites the end time only.
	UpdateEndTime(ctx context.Context, id uuid.UUID, end time.Time) error
	// FindByID returns ErrBlockNotFound when id does not resolve.
	FindByID(ctx context.Context, id uuid.UUID) (*ScheduleBlock, error)
	// Delete returns ErrBlockNotFound when nothing was deleted.
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByDay returns blocks starting within [dayStart, dayEnd], annotated
	// with the technician display name and ordered by start time.
	ListByDay(ctx context.Context, organizationID uuid.UUID, dayStart, dayEnd time.Time) ([]*ScheduleBlock, error)
	// ListForTechnician returns the technician's active blocks intersecting window.
	ListForTechnician(ctx context.Context, organizationID, technicianID uuid.UUID, window TimeRange) ([]*ScheduleBlock, error)
	// ListConflicting returns blocks whose conflict flag is set.
	ListConflicting(ctx context.Context, organizationID uuid.UUID) ([]*ScheduleBlock, error)
}

// EventRepository persists personal schedule entries.
type EventRepository interface {
	Create(ctx context.Context, event *ScheduleEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*ScheduleEvent, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDay(ctx context.Context, organizationID uuid.UUID, dayStart, dayEnd time.Time) ([]*ScheduleEvent, error)
}

// BacklogRepository reads unscheduled jobs from the job store.
type BacklogRepository interface {
	// ListBacklog returns unassigned backlog/todo jobs, newest first.
	ListBacklog(ctx context.Context, organizationID uuid.UUID) ([]BacklogJob, error)
}

// TechnicianDirectory reads technicians from the membership directory.
type TechnicianDirectory interface {
	ListTechnicians(ctx context.Context, organizationID uuid.UUID) ([]Technician, error)
	// FindTechnician returns ErrTechnicianNotFound for non-members.
	FindTechnician(ctx context.Context, organizationID, technicianID uuid.UUID) (Technician, error)
}

// MoveResult is returned by the atomic move procedure.
type MoveResult struct {
	Success  bool
	Conflict bool
	BlockID  uuid.UUID
}

// AssignJobParams promote a backlog job into a block.
type AssignJobParams struct {
	BlockID        uuid.UUID
	OrganizationID uuid.UUID
	JobID          uuid.UUID
	TechnicianID   uuid.UUID
	Range          TimeRange
}

// AssignResult is returned by the atomic assignment procedure.
type AssignResult struct {
	BlockID  uuid.UUID
	JobID    uuid.UUID
	Conflict bool
}

// ScheduleProcedures are the backend's atomic operations. Implementations
// return ErrBackendUnavailable when a procedure cannot be reached.
type ScheduleProcedures interface {
	MoveBlock(ctx context.Context, blockID uuid.UUID, technicianID *uuid.UUID, tr TimeRange) (MoveResult, error)
	AssignJob(ctx context.Context, params AssignJobParams) (AssignResult, error)
	DayView(ctx context.Context, organizationID uuid.UUID, dayStart, dayEnd time.Time) (*DayView, error)
}

// DayViewCache stores serialized day views per organization and day.
type DayViewCache interface {
	Get(ctx context.Context, organizationID uuid.UUID, date time.Time) ([]byte, bool, error)
	Set(ctx context.Context, organizationID uuid.UUID, date time.Time, payload []byte) error
	Invalidate(ctx context.Context, organizationID uuid.UUID, dates ...time.Time) error
}
