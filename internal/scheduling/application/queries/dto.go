package queries

import (
	"time"

	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
)

// BlockDTO is a data transfer object for schedule blocks.
type BlockDTO struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	JobID          *uuid.UUID     `json:"job_id"`
	TechnicianID   *uuid.UUID     `json:"technician_id"`
	TechnicianName string         `json:"technician_name,omitempty"`
	Title          string         `json:"title"`
	ClientName     *string        `json:"client_name"`
	Location       *string        `json:"location"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	Status         string         `json:"status"`
	TravelMinutes  *int           `json:"travel_minutes"`
	IsConflict     bool           `json:"is_conflict"`
	Notes          *string        `json:"notes"`
	Metadata       map[string]any `json:"metadata"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ToBlockDTO converts a block for transport.
func ToBlockDTO(b *domain.ScheduleBlock) BlockDTO {
	s := b.Snapshot()
	return BlockDTO{
		ID:             s.ID,
		OrganizationID: s.OrganizationID,
		JobID:          s.JobID,
		TechnicianID:   s.TechnicianID,
		TechnicianName: s.TechnicianName,
		Title:          s.Title,
		ClientName:     s.ClientName,
		Location:       s.Location,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		Status:         string(s.Status),
		TravelMinutes:  s.TravelMinutes,
		IsConflict:     s.IsConflict,
		Notes:          s.Notes,
		Metadata:       s.Metadata,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// ToBlockDTOs converts a list of blocks, never returning nil.
func ToBlockDTOs(blocks []*domain.ScheduleBlock) []BlockDTO {
	out := make([]BlockDTO, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, ToBlockDTO(b))
	}
	return out
}

// EventDTO is a data transfer object for schedule events.
type EventDTO struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Notes          *string   `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToEventDTO converts an event for transport.
func ToEventDTO(e *domain.ScheduleEvent) EventDTO {
	return EventDTO{
		ID:             e.ID(),
		OrganizationID: e.OrganizationID(),
		UserID:         e.UserID(),
		Type:           string(e.Type()),
		Title:          e.Title(),
		StartTime:      e.StartTime(),
		EndTime:        e.EndTime(),
		Notes:          e.Notes(),
		CreatedAt:      e.CreatedAt(),
	}
}

func toEventDTOs(events []*domain.ScheduleEvent) []EventDTO {
	out := make([]EventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, ToEventDTO(e))
	}
	return out
}

// BacklogJobDTO is a data transfer object for backlog jobs.
type BacklogJobDTO struct {
	ID                       uuid.UUID `json:"id"`
	DisplayID                string    `json:"display_id"`
	Title                    string    `json:"title"`
	Priority                 string    `json:"priority"`
	Location                 *string   `json:"location"`
	EstimatedDurationMinutes *int      `json:"estimated_duration_minutes"`
	ClientName               *string   `json:"client_name"`
	CreatedAt                time.Time `json:"created_at"`
}

func toBacklogDTOs(jobs []domain.BacklogJob) []BacklogJobDTO {
	out := make([]BacklogJobDTO, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, BacklogJobDTO(j))
	}
	return out
}

// TechnicianDTO is a data transfer object for technicians.
type TechnicianDTO struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
}

func toTechnicianDTOs(techs []domain.Technician) []TechnicianDTO {
	out := make([]TechnicianDTO, 0, len(techs))
	for _, t := range techs {
		out = append(out, TechnicianDTO(t))
	}
	return out
}

// DayViewDTO is the composed day view. Blocks is a flat list ordered by
// start time whichever path produced it.
type DayViewDTO struct {
	Date        string          `json:"date"`
	Technicians []TechnicianDTO `json:"technicians"`
	Blocks      []BlockDTO      `json:"blocks"`
	Events      []EventDTO      `json:"events"`
	Backlog     []BacklogJobDTO `json:"backlog"`
	// Source is aggregate, fallback or cache.
	Source string `json:"source"`
	// MissingSections lists sections that failed to load and are empty.
	MissingSections []string `json:"missing_sections,omitempty"`
}

// Degraded reports whether any section is missing.
func (d DayViewDTO) Degraded() bool {
	return len(d.MissingSections) > 0
}

func toDayViewDTO(view *domain.DayView, source string, missing []string) *DayViewDTO {
	return &DayViewDTO{
		Date:            view.Date.Format(domain.DateLayout),
		Technicians:     toTechnicianDTOs(view.Technicians),
		Blocks:          ToBlockDTOs(view.Blocks),
		Events:          toEventDTOs(view.Events),
		Backlog:         toBacklogDTOs(view.Backlog),
		Source:          source,
		MissingSections: missing,
	}
}
