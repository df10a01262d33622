package persistence

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database/sqlite"
)

// SQLiteBacklogRepository reads unscheduled jobs from the local job table.
type SQLiteBacklogRepository struct {
	conn database.Connection
}

// NewSQLiteBacklogRepository creates a new SQLite backlog repository.
func NewSQLiteBacklogRepository(conn database.Connection) *SQLiteBacklogRepository {
	return &SQLiteBacklogRepository{conn: conn}
}

func (r *SQLiteBacklogRepository) ListBacklog(ctx context.Context, organizationID uuid.UUID) ([]domain.BacklogJob, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `
		SELECT j.id, j.display_id, j.title, j.priority, j.location,
		       j.estimated_duration_minutes, c.name, j.created_at
		FROM jobs j
		LEFT JOIN clients c ON c.id = j.client_id
		WHERE j.organization_id = ?
		  AND j.assignee_id IS NULL
		  AND j.status IN ('backlog', 'todo')
		  AND j.deleted_at IS NULL
		ORDER BY j.created_at DESC, j.id
	`, organizationID.String())
	if err != nil {
		return nil, errors.Wrap(err, "query backlog")
	}
	defer rows.Close()

	jobs := make([]domain.BacklogJob, 0)
	for rows.Next() {
		var (
			job                  domain.BacklogJob
			id, createdAt        string
			location, clientName sql.NullString
			estimate             sql.NullInt64
		)
		if err := rows.Scan(&id, &job.DisplayID, &job.Title, &job.Priority, &location, &estimate, &clientName, &createdAt); err != nil {
			return nil, errors.Wrap(err, "scan backlog job")
		}
		if job.ID, err = uuid.Parse(id); err != nil {
			return nil, errors.Wrap(err, "parse job id")
		}
		if job.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
			return nil, err
		}
		job.Location = stringPtr(location)
		job.ClientName = stringPtr(clientName)
		job.EstimatedDurationMinutes = intPtr(estimate)
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// SQLiteTechnicianDirectory reads technicians from local membership rows.
type SQLiteTechnicianDirectory struct {
	conn database.Connection
}

// NewSQLiteTechnicianDirectory creates a new SQLite technician directory.
func NewSQLiteTechnicianDirectory(conn database.Connection) *SQLiteTechnicianDirectory {
	return &SQLiteTechnicianDirectory{conn: conn}
}

const sqliteTechnicianQuery = `
	SELECT p.id, COALESCE(NULLIF(p.full_name, ''), p.email), p.email
	FROM organization_members m
	JOIN profiles p ON p.id = m.user_id
	WHERE m.organization_id = ? AND m.role = 'technician' AND m.status = 'active'
`

func (d *SQLiteTechnicianDirectory) ListTechnicians(ctx context.Context, organizationID uuid.UUID) ([]domain.Technician, error) {
	exec := database.ExecutorFromContext(ctx, d.conn)
	rows, err := exec.Query(ctx, sqliteTechnicianQuery+` ORDER BY 2, p.id`, organizationID.String())
	if err != nil {
		return nil, errors.Wrap(err, "query technicians")
	}
	defer rows.Close()

	technicians := make([]domain.Technician, 0)
	for rows.Next() {
		tech, err := scanSQLiteTechnician(rows)
		if err != nil {
			return nil, err
		}
		technicians = append(technicians, tech)
	}
	return technicians, rows.Err()
}

func (d *SQLiteTechnicianDirectory) FindTechnician(ctx context.Context, organizationID, technicianID uuid.UUID) (domain.Technician, error) {
	exec := database.ExecutorFromContext(ctx, d.conn)
	row := exec.QueryRow(ctx, sqliteTechnicianQuery+` AND p.id = ?`, organizationID.String(), technicianID.String())
	tech, err := scanSQLiteTechnician(row)
	if database.IsNoRows(err) {
		return domain.Technician{}, domain.ErrTechnicianNotFound
	}
	return tech, err
}

func scanSQLiteTechnician(row database.Row) (domain.Technician, error) {
	var (
		tech domain.Technician
		id   string
	)
	if err := row.Scan(&id, &tech.DisplayName, &tech.Email); err != nil {
		if database.IsNoRows(err) {
			return domain.Technician{}, err
		}
		return domain.Technician{}, errors.Wrap(err, "scan technician")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return domain.Technician{}, errors.Wrap(err, "parse technician id")
	}
	tech.ID = parsed
	return tech, nil
}
