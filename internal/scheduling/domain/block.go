package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/iworkr/iworkr-stack-sub004/internal/shared/domain"
)

// BlockStatus is the lifecycle state of a schedule block.
type BlockStatus string

const (
	BlockStatusScheduled  BlockStatus = "scheduled"
	BlockStatusEnRoute    BlockStatus = "en_route"
	BlockStatusInProgress BlockStatus = "in_progress"
	BlockStatusComplete   BlockStatus = "complete"
	BlockStatusCancelled  BlockStatus = "cancelled"
)

// IsValid reports whether s is a known status.
func (s BlockStatus) IsValid() bool {
	switch s {
	case BlockStatusScheduled, BlockStatusEnRoute, BlockStatusInProgress, BlockStatusComplete, BlockStatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether a block in this status occupies technician time.
func (s BlockStatus) IsActive() bool {
	return s != BlockStatusCancelled
}

// UnassignedKey groups blocks that have no technician.
const UnassignedKey = "unassigned"

// ScheduleBlock is a committed unit of technician time.
type ScheduleBlock struct {
	sharedDomain.BaseEntity
	organizationID uuid.UUID
	jobID          *uuid.UUID
	technicianID   *uuid.UUID
	technicianName string
	title          string
	clientName     *string
	location       *string
	timeRange      TimeRange
	status         BlockStatus
	travelMinutes  *int
	isConflict     bool
	notes          *string
	metadata       map[string]any
}

// BlockParams are the inputs for a new block.
type BlockParams struct {
	OrganizationID uuid.UUID
	TechnicianID   *uuid.UUID
	JobID          *uuid.UUID
	Title          string
	ClientName     *string
	Location       *string
	StartTime      time.Time
	EndTime        time.Time
	Status         BlockStatus
	TravelMinutes  *int
	Notes          *string
	Metadata       map[string]any
}

// NewScheduleBlock validates params and creates a block. The conflict flag
// starts false; callers set it from the detector.
func NewScheduleBlock(p BlockParams) (*ScheduleBlock, error) {
	if p.OrganizationID == uuid.Nil {
		return nil, NewValidationError("organization_id", "is required")
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, NewValidationError("title", "is required")
	}
	tr, err := NewTimeRange(p.StartTime, p.EndTime)
	if err != nil {
		return nil, err
	}
	status := p.Status
	if status == "" {
		status = BlockStatusScheduled
	}
	if !status.IsValid() {
		return nil, NewValidationError("status", "unknown status "+string(status))
	}
	if p.TravelMinutes != nil && *p.TravelMinutes < 0 {
		return nil, NewValidationError("travel_minutes", "must not be negative")
	}

	return &ScheduleBlock{
		BaseEntity:     sharedDomain.NewBaseEntity(),
		organizationID: p.OrganizationID,
		jobID:          p.JobID,
		technicianID:   p.TechnicianID,
		title:          title,
		clientName:     p.ClientName,
		location:       p.Location,
		timeRange:      tr,
		status:         status,
		travelMinutes:  p.TravelMinutes,
		notes:          p.Notes,
		metadata:       cloneMetadata(p.Metadata),
	}, nil
}

func (b *ScheduleBlock) OrganizationID() uuid.UUID { return b.organizationID }
func (b *ScheduleBlock) JobID() *uuid.UUID         { return b.jobID }
func (b *ScheduleBlock) TechnicianID() *uuid.UUID  { return b.technicianID }
func (b *ScheduleBlock) TechnicianName() string    { return b.technicianName }
func (b *ScheduleBlock) Title() string             { return b.title }
func (b *ScheduleBlock) ClientName() *string       { return b.clientName }
func (b *ScheduleBlock) Location() *string         { return b.location }
func (b *ScheduleBlock) TimeRange() TimeRange      { return b.timeRange }
func (b *ScheduleBlock) StartTime() time.Time      { return b.timeRange.Start }
func (b *ScheduleBlock) EndTime() time.Time        { return b.timeRange.End }
func (b *ScheduleBlock) Status() BlockStatus       { return b.status }
func (b *ScheduleBlock) TravelMinutes() *int       { return b.travelMinutes }
func (b *ScheduleBlock) IsConflict() bool          { return b.isConflict }
func (b *ScheduleBlock) Notes() *string            { return b.notes }
func (b *ScheduleBlock) Metadata() map[string]any  { return cloneMetadata(b.metadata) }

// GroupKey is the technician id, or UnassignedKey.
func (b *ScheduleBlock) GroupKey() string {
	if b.technicianID == nil {
		return UnassignedKey
	}
	return b.technicianID.String()
}

// IsAssigned reports whether the block has a technician.
func (b *ScheduleBlock) IsAssigned() bool {
	return b.technicianID != nil
}

// SetTechnicianName annotates the block with the technician's display name.
func (b *ScheduleBlock) SetTechnicianName(name string) {
	b.technicianName = name
}

// MarkConflict stores the detector's verdict. Unassigned blocks never conflict.
func (b *ScheduleBlock) MarkConflict(conflict bool) {
	b.isConflict = conflict && b.technicianID != nil
	b.Touch()
}

// Move changes technician and time range without touching the conflict flag.
func (b *ScheduleBlock) Move(technicianID *uuid.UUID, start, end time.Time) error {
	tr, err := NewTimeRange(start, end)
	if err != nil {
		return err
	}
	b.technicianID = technicianID
	b.timeRange = tr
	b.Touch()
	return nil
}

// Resize changes only the end time.
func (b *ScheduleBlock) Resize(end time.Time) error {
	tr, err := NewTimeRange(b.timeRange.Start, end)
	if err != nil {
		return err
	}
	b.timeRange = tr
	b.Touch()
	return nil
}

// BlockPatch is a partial update. Absent fields keep their current value.
type BlockPatch struct {
	TechnicianID  Optional[*uuid.UUID]
	JobID         Optional[*uuid.UUID]
	Title         Optional[string]
	ClientName    Optional[*string]
	Location      Optional[*string]
	StartTime     Optional[time.Time]
	EndTime       Optional[time.Time]
	Status        Optional[BlockStatus]
	TravelMinutes Optional[*int]
	Notes         Optional[*string]
	Metadata      Optional[map[string]any]
}

// IsEmpty reports whether the patch sets nothing.
func (p BlockPatch) IsEmpty() bool {
	return !p.TechnicianID.Set && !p.JobID.Set && !p.Title.Set && !p.ClientName.Set &&
		!p.Location.Set && !p.StartTime.Set && !p.EndTime.Set && !p.Status.Set &&
		!p.TravelMinutes.Set && !p.Notes.Set && !p.Metadata.Set
}

// Apply merges the patch into the block. It reports whether technician,
// start or end changed, which is when the conflict flag must be recomputed.
// The block is left untouched when the patch is invalid.
func (b *ScheduleBlock) Apply(p BlockPatch) (bool, error) {
	tr, err := NewTimeRange(p.StartTime.Or(b.timeRange.Start), p.EndTime.Or(b.timeRange.End))
	if err != nil {
		return false, err
	}
	title := b.title
	if p.Title.Set {
		title = strings.TrimSpace(p.Title.Value)
		if title == "" {
			return false, NewValidationError("title", "must not be empty")
		}
	}
	if p.Status.Set && !p.Status.Value.IsValid() {
		return false, NewValidationError("status", "unknown status "+string(p.Status.Value))
	}
	if p.TravelMinutes.Set && p.TravelMinutes.Value != nil && *p.TravelMinutes.Value < 0 {
		return false, NewValidationError("travel_minutes", "must not be negative")
	}

	technicianID := p.TechnicianID.Or(b.technicianID)
	placementChanged := !tr.Start.Equal(b.timeRange.Start) ||
		!tr.End.Equal(b.timeRange.End) ||
		!sameID(technicianID, b.technicianID)

	b.technicianID = technicianID
	b.timeRange = tr
	b.title = title
	b.jobID = p.JobID.Or(b.jobID)
	b.clientName = p.ClientName.Or(b.clientName)
	b.location = p.Location.Or(b.location)
	b.status = p.Status.Or(b.status)
	b.travelMinutes = p.TravelMinutes.Or(b.travelMinutes)
	b.notes = p.Notes.Or(b.notes)
	if p.Metadata.Set {
		b.metadata = cloneMetadata(p.Metadata.Value)
	}
	if placementChanged && technicianID == nil {
		b.isConflict = false
	}
	b.Touch()

	return placementChanged, nil
}

// BlockSnapshot is the persisted shape of a block.
type BlockSnapshot struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	JobID          *uuid.UUID
	TechnicianID   *uuid.UUID
	TechnicianName string
	Title          string
	ClientName     *string
	Location       *string
	StartTime      time.Time
	EndTime        time.Time
	Status         BlockStatus
	TravelMinutes  *int
	IsConflict     bool
	Notes          *string
	Metadata       map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Snapshot exports the block state.
func (b *ScheduleBlock) Snapshot() BlockSnapshot {
	return BlockSnapshot{
		ID:             b.ID(),
		OrganizationID: b.organizationID,
		JobID:          b.jobID,
		TechnicianID:   b.technicianID,
		TechnicianName: b.technicianName,
		Title:          b.title,
		ClientName:     b.clientName,
		Location:       b.location,
		StartTime:      b.timeRange.Start,
		EndTime:        b.timeRange.End,
		Status:         b.status,
		TravelMinutes:  b.travelMinutes,
		IsConflict:     b.isConflict,
		Notes:          b.notes,
		Metadata:       b.Metadata(),
		CreatedAt:      b.CreatedAt(),
		UpdatedAt:      b.UpdatedAt(),
	}
}

// RehydrateScheduleBlock recreates a block from persisted state without validation.
func RehydrateScheduleBlock(s BlockSnapshot) *ScheduleBlock {
	return &ScheduleBlock{
		BaseEntity:     sharedDomain.RehydrateBaseEntity(s.ID, s.CreatedAt, s.UpdatedAt),
		organizationID: s.OrganizationID,
		jobID:          s.JobID,
		technicianID:   s.TechnicianID,
		technicianName: s.TechnicianName,
		title:          s.Title,
		clientName:     s.ClientName,
		location:       s.Location,
		timeRange:      TimeRange{Start: s.StartTime.UTC(), End: s.EndTime.UTC()},
		status:         s.Status,
		travelMinutes:  s.TravelMinutes,
		isConflict:     s.IsConflict,
		notes:          s.Notes,
		metadata:       cloneMetadata(s.Metadata),
	}
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
