package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database"
)

const postgresBlockColumns = `
	SELECT b.id, b.organization_id, b.job_id, b.technician_id,
	       COALESCE(NULLIF(p.full_name, ''), p.email, ''),
	       b.title, b.client_name, b.location, b.start_time, b.end_time, b.status,
	       b.travel_minutes, b.is_conflict, b.notes, b.metadata, b.created_at, b.updated_at
	FROM schedule_blocks b
	LEFT JOIN profiles p ON p.id = b.technician_id
`

// PostgresBlockRepository implements domain.BlockRepository using PostgreSQL.
type PostgresBlockRepository struct {
	conn database.Connection
}

// NewPostgresBlockRepository creates a new PostgreSQL block repository.
func NewPostgresBlockRepository(conn database.Connection) *PostgresBlockRepository {
	return &PostgresBlockRepository{conn: conn}
}

func (r *PostgresBlockRepository) Create(ctx context.Context, block *domain.ScheduleBlock) error {
	s := block.Snapshot()
	metadata, err := encodeMetadata(s.Metadata)
	if err != nil {
		return err
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err = exec.Exec(ctx, `
		INSERT INTO schedule_blocks (
			id, organization_id, job_id, technician_id, title, client_name, location,
			start_time, end_time, status, travel_minutes, is_conflict, notes, metadata,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::jsonb, $15, $16)
	`,
		s.ID, s.OrganizationID, s.JobID, s.TechnicianID, s.Title, s.ClientName, s.Location,
		s.StartTime, s.EndTime, string(s.Status), s.TravelMinutes, s.IsConflict, s.Notes, metadata,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert schedule block %s", s.ID)
	}
	return nil
}

func (r *PostgresBlockRepository) Update(ctx context.Context, block *domain.ScheduleBlock) error {
	s := block.Snapshot()
	metadata, err := encodeMetadata(s.Metadata)
	if err != nil {
		return err
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `
		UPDATE schedule_blocks
		SET job_id = $2, technician_id = $3, title = $4, client_name = $5, location = $6,
		    start_time = $7, end_time = $8, status = $9, travel_minutes = $10, is_conflict = $11,
		    notes = $12, metadata = $13::jsonb, updated_at = $14
		WHERE id = $1
	`,
		s.ID, s.JobID, s.TechnicianID, s.Title, s.ClientName, s.Location,
		s.StartTime, s.EndTime, string(s.Status), s.TravelMinutes, s.IsConflict,
		s.Notes, metadata, s.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "update schedule block %s", s.ID)
	}
	return requireAffected(result, domain.ErrBlockNotFound)
}

func (r *PostgresBlockRepository) UpdatePlacement(ctx context.Context, id uuid.UUID, technicianID *uuid.UUID, tr domain.TimeRange) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `
		UPDATE schedule_blocks
		SET technician_id = $2, start_time = $3, end_time = $4, updated_at = NOW()
		WHERE id = $1
	`, id, technicianID, tr.Start, tr.End)
	if err != nil {
		return errors.Wrapf(err, "update placement of schedule block %s", id)
	}
	return requireAffected(result, domain.ErrBlockNotFound)
}

func (r *PostgresBlockRepository) UpdateEndTime(ctx context.Context, id uuid.UUID, end time.Time) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `UPDATE schedule_blocks SET end_time = $2, updated_at = NOW() WHERE id = $1`, id, end)
	if err != nil {
		return errors.Wrapf(err, "update end time of schedule block %s", id)
	}
	return requireAffected(result, domain.ErrBlockNotFound)
}

func (r *PostgresBlockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleBlock, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	block, err := scanPostgresBlock(exec.QueryRow(ctx, postgresBlockColumns+` WHERE b.id = $1`, id))
	if database.IsNoRows(err) {
		return nil, domain.ErrBlockNotFound
	}
	if err != nil {
		return nil, err
	}
	return block, nil
}

func (r *PostgresBlockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `DELETE FROM schedule_blocks WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete schedule block %s", id)
	}
	return requireAffected(result, domain.ErrBlockNotFound)
}

func (r *PostgresBlockRepository) ListByDay(ctx context.Context, organizationID uuid.UUID, dayStart, dayEnd time.Time) ([]*domain.ScheduleBlock, error) {
	return r.list(ctx, postgresBlockColumns+`
		WHERE b.organization_id = $1 AND b.start_time >= $2 AND b.start_time <= $3
		ORDER BY b.start_time, b.id
	`, organizationID, dayStart, dayEnd)
}

func (r *PostgresBlockRepository) ListForTechnician(ctx context.Context, organizationID, technicianID uuid.UUID, window domain.TimeRange) ([]*domain.ScheduleBlock, error) {
	return r.list(ctx, postgresBlockColumns+`
		WHERE b.organization_id = $1 AND b.technician_id = $2 AND b.status <> 'cancelled'
		  AND b.start_time <= $3 AND b.end_time >= $4
		ORDER BY b.start_time, b.id
	`, organizationID, technicianID, window.End, window.Start)
}

func (r *PostgresBlockRepository) ListConflicting(ctx context.Context, organizationID uuid.UUID) ([]*domain.ScheduleBlock, error) {
	return r.list(ctx, postgresBlockColumns+`
		WHERE b.organization_id = $1 AND b.is_conflict
		ORDER BY b.start_time, b.id
	`, organizationID)
}

func (r *PostgresBlockRepository) list(ctx context.Context, query string, args ...any) ([]*domain.ScheduleBlock, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query schedule blocks")
	}
	defer rows.Close()

	blocks := make([]*domain.ScheduleBlock, 0)
	for rows.Next() {
		block, err := scanPostgresBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, rows.Err()
}

func scanPostgresBlock(row database.Row) (*domain.ScheduleBlock, error) {
	var (
		s                   domain.BlockSnapshot
		status              string
		jobID, technicianID uuid.NullUUID
		metadata            []byte
	)
	if err := row.Scan(
		&s.ID, &s.OrganizationID, &jobID, &technicianID, &s.TechnicianName,
		&s.Title, &s.ClientName, &s.Location, &s.StartTime, &s.EndTime, &status,
		&s.TravelMinutes, &s.IsConflict, &s.Notes, &metadata, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		if database.IsNoRows(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan schedule block")
	}

	var err error
	if s.Metadata, err = decodeMetadata(metadata); err != nil {
		return nil, err
	}
	s.Status = domain.BlockStatus(status)
	s.JobID = uuidPtr(jobID)
	s.TechnicianID = uuidPtr(technicianID)
	return domain.RehydrateScheduleBlock(s), nil
}
