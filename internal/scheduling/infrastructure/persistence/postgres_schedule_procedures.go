package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database/postgres"
)

// PostgresScheduleProcedures calls the stored functions installed by the
// schedule_procedures migration. A missing function or a lost connection is
// reported as ErrBackendUnavailable so callers can choose a degraded path.
type PostgresScheduleProcedures struct {
	conn database.Connection
}

// NewPostgresScheduleProcedures creates the stored-function client.
func NewPostgresScheduleProcedures(conn database.Connection) *PostgresScheduleProcedures {
	return &PostgresScheduleProcedures{conn: conn}
}

type procedureResult struct {
	Success  bool      `json:"success"`
	Conflict bool      `json:"conflict"`
	BlockID  uuid.UUID `json:"block_id"`
	JobID    uuid.UUID `json:"job_id"`
}

func (p *PostgresScheduleProcedures) MoveBlock(ctx context.Context, blockID uuid.UUID, technicianID *uuid.UUID, tr domain.TimeRange) (domain.MoveResult, error) {
	var raw []byte
	exec := database.ExecutorFromContext(ctx, p.conn)
	err := exec.QueryRow(ctx, `SELECT move_schedule_block($1, $2, $3, $4)`, blockID, technicianID, tr.Start, tr.End).Scan(&raw)
	if err != nil {
		return domain.MoveResult{}, mapProcedureError("move_schedule_block", err, domain.ErrBlockNotFound)
	}

	var res procedureResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return domain.MoveResult{}, errors.Wrap(err, "decode move_schedule_block result")
	}
	return domain.MoveResult{Success: res.Success, Conflict: res.Conflict, BlockID: res.BlockID}, nil
}

func (p *PostgresScheduleProcedures) AssignJob(ctx context.Context, params domain.AssignJobParams) (domain.AssignResult, error) {
	var raw []byte
	exec := database.ExecutorFromContext(ctx, p.conn)
	err := exec.QueryRow(ctx, `SELECT assign_job_to_schedule($1, $2, $3, $4, $5, $6)`,
		params.BlockID, params.OrganizationID, params.JobID, params.TechnicianID,
		params.Range.Start, params.Range.End,
	).Scan(&raw)
	if err != nil {
		return domain.AssignResult{}, mapProcedureError("assign_job_to_schedule", err, domain.ErrJobNotFound)
	}

	var res procedureResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return domain.AssignResult{}, errors.Wrap(err, "decode assign_job_to_schedule result")
	}
	return domain.AssignResult{BlockID: res.BlockID, JobID: res.JobID, Conflict: res.Conflict}, nil
}

func (p *PostgresScheduleProcedures) DayView(ctx context.Context, organizationID uuid.UUID, dayStart, dayEnd time.Time) (*domain.DayView, error) {
	var raw []byte
	exec := database.ExecutorFromContext(ctx, p.conn)
	err := exec.QueryRow(ctx, `SELECT get_schedule_view($1, $2, $3)`, organizationID, dayStart, dayEnd).Scan(&raw)
	if err != nil {
		return nil, mapProcedureError("get_schedule_view", err, domain.ErrNotFound)
	}
	return decodeDayView(raw, dayStart)
}

func mapProcedureError(procedure string, err error, notFound error) error {
	if postgres.IsUnavailable(err) {
		return errors.Wrapf(domain.ErrBackendUnavailable, "%s: %v", procedure, err)
	}
	if pgErr, ok := postgres.PgError(err); ok {
		switch pgErr.Code {
		case postgres.CodeNoDataFound:
			return notFound
		case postgres.CodeNotInPrerequisite:
			return domain.ErrJobNotInBacklog
		case postgres.CodeInvalidParameter:
			return domain.ErrInvalidTimeRange
		}
	}
	return errors.Wrapf(err, "call %s", procedure)
}

type dayViewPayload struct {
	Technicians []struct {
		ID          uuid.UUID `json:"id"`
		DisplayName string    `json:"display_name"`
		Email       string    `json:"email"`
	} `json:"technicians"`
	Blocks []struct {
		ID             uuid.UUID      `json:"id"`
		OrganizationID uuid.UUID      `json:"organization_id"`
		JobID          *uuid.UUID     `json:"job_id"`
		TechnicianID   *uuid.UUID     `json:"technician_id"`
		TechnicianName *string        `json:"technician_name"`
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
	} `json:"blocks"`
	Events []struct {
		ID             uuid.UUID `json:"id"`
		OrganizationID uuid.UUID `json:"organization_id"`
		UserID         uuid.UUID `json:"user_id"`
		Type           string    `json:"type"`
		Title          string    `json:"title"`
		StartTime      time.Time `json:"start_time"`
		EndTime        time.Time `json:"end_time"`
		Notes          *string   `json:"notes"`
		CreatedAt      time.Time `json:"created_at"`
	} `json:"events"`
	Backlog []struct {
		ID                       uuid.UUID `json:"id"`
		DisplayID                string    `json:"display_id"`
		Title                    string    `json:"title"`
		Priority                 string    `json:"priority"`
		Location                 *string   `json:"location"`
		EstimatedDurationMinutes *int      `json:"estimated_duration_minutes"`
		ClientName               *string   `json:"client_name"`
		CreatedAt                time.Time `json:"created_at"`
	} `json:"backlog"`
}

func decodeDayView(raw []byte, date time.Time) (*domain.DayView, error) {
	var payload dayViewPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decode get_schedule_view result")
	}

	view := &domain.DayView{
		Date:        date,
		Technicians: make([]domain.Technician, 0, len(payload.Technicians)),
		Blocks:      make([]*domain.ScheduleBlock, 0, len(payload.Blocks)),
		Events:      make([]*domain.ScheduleEvent, 0, len(payload.Events)),
		Backlog:     make([]domain.BacklogJob, 0, len(payload.Backlog)),
	}
	for _, t := range payload.Technicians {
		view.Technicians = append(view.Technicians, domain.Technician{ID: t.ID, DisplayName: t.DisplayName, Email: t.Email})
	}
	for _, b := range payload.Blocks {
		s := domain.BlockSnapshot{
			ID:             b.ID,
			OrganizationID: b.OrganizationID,
			JobID:          b.JobID,
			TechnicianID:   b.TechnicianID,
			Title:          b.Title,
			ClientName:     b.ClientName,
			Location:       b.Location,
			StartTime:      b.StartTime,
			EndTime:        b.EndTime,
			Status:         domain.BlockStatus(b.Status),
			TravelMinutes:  b.TravelMinutes,
			IsConflict:     b.IsConflict,
			Notes:          b.Notes,
			Metadata:       b.Metadata,
			CreatedAt:      b.CreatedAt,
			UpdatedAt:      b.UpdatedAt,
		}
		if b.TechnicianName != nil {
			s.TechnicianName = *b.TechnicianName
		}
		view.Blocks = append(view.Blocks, domain.RehydrateScheduleBlock(s))
	}
	for _, e := range payload.Events {
		view.Events = append(view.Events, domain.RehydrateScheduleEvent(
			e.ID, e.OrganizationID, e.UserID, domain.EventType(e.Type), e.Title,
			e.StartTime, e.EndTime, e.Notes, e.CreatedAt,
		))
	}
	for _, j := range payload.Backlog {
		view.Backlog = append(view.Backlog, domain.BacklogJob{
			ID:                       j.ID,
			DisplayID:                j.DisplayID,
			Title:                    j.Title,
			Priority:                 j.Priority,
			Location:                 j.Location,
			EstimatedDurationMinutes: j.EstimatedDurationMinutes,
			ClientName:               j.ClientName,
			CreatedAt:                j.CreatedAt,
		})
	}
	return view, nil
}
