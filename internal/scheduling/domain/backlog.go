package domain

import (
	"time"

	"github.com/google/uuid"
)

// Job statuses that make an unassigned job eligible for placement.
const (
	JobStatusBacklog   = "backlog"
	JobStatusTodo      = "todo"
	JobStatusScheduled = "scheduled"
)

// BacklogJob is a read projection of an unassigned, early-stage job.
type BacklogJob struct {
	ID                       uuid.UUID
	DisplayID                string
	Title                    string
	Priority                 string
	Location                 *string
	EstimatedDurationMinutes *int
	ClientName               *string
	CreatedAt                time.Time
}

// Technician is a schedulable member of an organization.
type Technician struct {
	ID          uuid.UUID
	DisplayName string
	Email       string
}

// DayView is everything a dispatcher sees for one organization and day.
type DayView struct {
	Date        time.Time
	Technicians []Technician
	// Blocks is flat and ordered by start time.
	Blocks  []*ScheduleBlock
	Events  []*ScheduleEvent
	Backlog []BacklogJob
}
