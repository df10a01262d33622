package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database"
)

// PostgresBacklogRepository reads unscheduled jobs from the shared job table.
type PostgresBacklogRepository struct {
	conn database.Connection
}

// NewPostgresBacklogRepository creates a new PostgreSQL backlog repository.
func NewPostgresBacklogRepository(conn database.Connection) *PostgresBacklogRepository {
	return &PostgresBacklogRepository{conn: conn}
}

func (r *PostgresBacklogRepository) ListBacklog(ctx context.Context, organizationID uuid.UUID) ([]domain.BacklogJob, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `
		SELECT j.id, j.display_id, j.title, j.priority, j.location,
		       j.estimated_duration_minutes, c.name, j.created_at
		FROM jobs j
		LEFT JOIN clients c ON c.id = j.client_id
		WHERE j.organization_id = $1
		  AND j.assignee_id IS NULL
		  AND j.status IN ('backlog', 'todo')
		  AND j.deleted_at IS NULL
		ORDER BY j.created_at DESC, j.id
	`, organizationID)
	if err != nil {
		return nil, errors.Wrap(err, "query backlog")
	}
	defer rows.Close()

	jobs := make([]domain.BacklogJob, 0)
	for rows.Next() {
		var job domain.BacklogJob
		if err := rows.Scan(
			&job.ID, &job.DisplayID, &job.Title, &job.Priority, &job.Location,
			&job.EstimatedDurationMinutes, &job.ClientName, &job.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan backlog job")
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// PostgresTechnicianDirectory reads technicians from organization memberships.
type PostgresTechnicianDirectory struct {
	conn database.Connection
}

// NewPostgresTechnicianDirectory creates a new PostgreSQL technician directory.
func NewPostgresTechnicianDirectory(conn database.Connection) *PostgresTechnicianDirectory {
	return &PostgresTechnicianDirectory{conn: conn}
}

const postgresTechnicianQuery = `
	SELECT p.id, COALESCE(NULLIF(p.full_name, ''), p.email), p.email
	FROM organization_members m
	JOIN profiles p ON p.id = m.user_id
	WHERE m.organization_id = $1 AND m.role = 'technician' AND m.status = 'active'
`

func (d *PostgresTechnicianDirectory) ListTechnicians(ctx context.Context, organizationID uuid.UUID) ([]domain.Technician, error) {
	exec := database.ExecutorFromContext(ctx, d.conn)
	rows, err := exec.Query(ctx, postgresTechnicianQuery+` ORDER BY 2, p.id`, organizationID)
	if err != nil {
		return nil, errors.Wrap(err, "query technicians")
	}
	defer rows.Close()

	technicians := make([]domain.Technician, 0)
	for rows.Next() {
		var tech domain.Technician
		if err := rows.Scan(&tech.ID, &tech.DisplayName, &tech.Email); err != nil {
			return nil, errors.Wrap(err, "scan technician")
		}
		technicians = append(technicians, tech)
	}
	return technicians, rows.Err()
}

func (d *PostgresTechnicianDirectory) FindTechnician(ctx context.Context, organizationID, technicianID uuid.UUID) (domain.Technician, error) {
	exec := database.ExecutorFromContext(ctx, d.conn)
	var tech domain.Technician
	err := exec.QueryRow(ctx, postgresTechnicianQuery+` AND p.id = $2`, organizationID, technicianID).
		Scan(&tech.ID, &tech.DisplayName, &tech.Email)
	if database.IsNoRows(err) {
		return domain.Technician{}, domain.ErrTechnicianNotFound
	}
	if err != nil {
		return domain.Technician{}, errors.Wrap(err, "find technician")
	}
	return tech, nil
}
