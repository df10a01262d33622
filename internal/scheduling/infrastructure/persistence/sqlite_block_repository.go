package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database/sqlite"
)

const sqliteBlockColumns = `
	SELECT b.id, b.organization_id, b.job_id, b.technician_id,
	       COALESCE(NULLIF(p.full_name, ''), p.email, ''),
	       b.title, b.client_name, b.location, b.start_time, b.end_time, b.status,
	       b.travel_minutes, b.is_conflict, b.notes, b.metadata, b.created_at, b.updated_at
	FROM schedule_blocks b
	LEFT JOIN profiles p ON p.id = b.technician_id
`

// SQLiteBlockRepository implements domain.BlockRepository for local mode.
type SQLiteBlockRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLiteBlockRepository creates a new SQLite block repository.
func NewSQLiteBlockRepository(conn database.Connection) *SQLiteBlockRepository {
	return &SQLiteBlockRepository{conn: conn, now: time.Now}
}

func (r *SQLiteBlockRepository) Create(ctx context.Context, block *domain.ScheduleBlock) error {
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
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID.String(),
		s.OrganizationID.String(),
		nullUUIDString(s.JobID),
		nullUUIDString(s.TechnicianID),
		s.Title,
		nullString(s.ClientName),
		nullString(s.Location),
		sqlite.FormatTime(s.StartTime),
		sqlite.FormatTime(s.EndTime),
		string(s.Status),
		nullInt(s.TravelMinutes),
		boolInt(s.IsConflict),
		nullString(s.Notes),
		metadata,
		sqlite.FormatTime(s.CreatedAt),
		sqlite.FormatTime(s.UpdatedAt),
	)
	if err != nil {
		return errors.Wrapf(err, "insert schedule block %s", s.ID)
	}
	return nil
}

func (r *SQLiteBlockRepository) Update(ctx context.Context, block *domain.ScheduleBlock) error {
	s := block.Snapshot()
	metadata, err := encodeMetadata(s.Metadata)
	if err != nil {
		return err
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `
		UPDATE schedule_blocks
		SET job_id = ?, technician_id = ?, title = ?, client_name = ?, location = ?,
		    start_time = ?, end_time = ?, status = ?, travel_minutes = ?, is_conflict = ?,
		    notes = ?, metadata = ?, updated_at = ?
		WHERE id = ?
	`,
		nullUUIDString(s.JobID),
		nullUUIDString(s.TechnicianID),
		s.Title,
		nullString(s.ClientName),
		nullString(s.Location),
		sqlite.FormatTime(s.StartTime),
		sqlite.FormatTime(s.EndTime),
		string(s.Status),
		nullInt(s.TravelMinutes),
		boolInt(s.IsConflict),
		nullString(s.Notes),
		metadata,
		sqlite.FormatTime(s.UpdatedAt),
		s.ID.String(),
	)
	if err != nil {
		return errors.Wrapf(err, "update schedule block %s", s.ID)
	}
	return requireAffected(result, domain.ErrBlockNotFound)
}

func (r *SQLiteBlockRepository) UpdatePlacement(ctx context.Context, id uuid.UUID, technicianID *uuid.UUID, tr domain.TimeRange) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `
		UPDATE schedule_blocks
		SET technician_id = ?, start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ?
	`,
		nullUUIDString(technicianID),
		sqlite.FormatTime(tr.Start),
		sqlite.FormatTime(tr.End),
		sqlite.FormatTime(r.now()),
		id.String(),
	)
	if err != nil {
		return errors.Wrapf(err, "update placement of schedule block %s", id)
	}
	return requireAffected(result, domain.ErrBlockNotFound)
}

func (r *SQLiteBlockRepository) UpdateEndTime(ctx context.Context, id uuid.UUID, end time.Time) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `UPDATE schedule_blocks SET end_time = ?, updated_at = ? WHERE id = ?`,
		sqlite.FormatTime(end), sqlite.FormatTime(r.now()), id.String())
	if err != nil {
		return errors.Wrapf(err, "update end time of schedule block %s", id)
	}
	return requireAffected(result, domain.ErrBlockNotFound)
}

func (r *SQLiteBlockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleBlock, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, sqliteBlockColumns+` WHERE b.id = ?`, id.String())
	block, err := scanSQLiteBlock(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrBlockNotFound
	}
	if err != nil {
		return nil, err
	}
	return block, nil
}

func (r *SQLiteBlockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `DELETE FROM schedule_blocks WHERE id = ?`, id.String())
	if err != nil {
		return errors.Wrapf(err, "delete schedule block %s", id)
	}
	return requireAffected(result, domain.ErrBlockNotFound)
}

func (r *SQLiteBlockRepository) ListByDay(ctx context.Context, organizationID uuid.UUID, dayStart, dayEnd time.Time) ([]*domain.ScheduleBlock, error) {
	return r.list(ctx, sqliteBlockColumns+`
		WHERE b.organization_id = ? AND b.start_time >= ? AND b.start_time <= ?
		ORDER BY b.start_time, b.id
	`, organizationID.String(), sqlite.FormatTime(dayStart), sqlite.FormatTime(dayEnd))
}

func (r *SQLiteBlockRepository) ListForTechnician(ctx context.Context, organizationID, technicianID uuid.UUID, window domain.TimeRange) ([]*domain.ScheduleBlock, error) {
	return r.list(ctx, sqliteBlockColumns+`
		WHERE b.organization_id = ? AND b.technician_id = ? AND b.status <> 'cancelled'
		  AND b.start_time <= ? AND b.end_time >= ?
		ORDER BY b.start_time, b.id
	`, organizationID.String(), technicianID.String(), sqlite.FormatTime(window.End), sqlite.FormatTime(window.Start))
}

func (r *SQLiteBlockRepository) ListConflicting(ctx context.Context, organizationID uuid.UUID) ([]*domain.ScheduleBlock, error) {
	return r.list(ctx, sqliteBlockColumns+`
		WHERE b.organization_id = ? AND b.is_conflict = 1
		ORDER BY b.start_time, b.id
	`, organizationID.String())
}

func (r *SQLiteBlockRepository) list(ctx context.Context, query string, args ...any) ([]*domain.ScheduleBlock, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query schedule blocks")
	}
	defer rows.Close()

	blocks := make([]*domain.ScheduleBlock, 0)
	for rows.Next() {
		block, err := scanSQLiteBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, rows.Err()
}

func scanSQLiteBlock(row database.Row) (*domain.ScheduleBlock, error) {
	var (
		id, orgID, title, status       string
		startTime, endTime             string
		createdAt, updatedAt, metadata string
		technicianName                 string
		jobID, technicianID            sql.NullString
		clientName, location, notes    sql.NullString
		travelMinutes                  sql.NullInt64
		isConflict                     int64
	)
	if err := row.Scan(
		&id, &orgID, &jobID, &technicianID, &technicianName,
		&title, &clientName, &location, &startTime, &endTime, &status,
		&travelMinutes, &isConflict, &notes, &metadata, &createdAt, &updatedAt,
	); err != nil {
		if database.IsNoRows(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan schedule block")
	}

	s := domain.BlockSnapshot{
		TechnicianName: technicianName,
		Title:          title,
		Status:         domain.BlockStatus(status),
		IsConflict:     isConflict != 0,
		ClientName:     stringPtr(clientName),
		Location:       stringPtr(location),
		Notes:          stringPtr(notes),
		TravelMinutes:  intPtr(travelMinutes),
	}

	var err error
	if s.ID, err = uuid.Parse(id); err != nil {
		return nil, errors.Wrap(err, "parse block id")
	}
	if s.OrganizationID, err = uuid.Parse(orgID); err != nil {
		return nil, errors.Wrap(err, "parse organization id")
	}
	if s.JobID, err = parseNullUUID(jobID); err != nil {
		return nil, errors.Wrap(err, "parse job id")
	}
	if s.TechnicianID, err = parseNullUUID(technicianID); err != nil {
		return nil, errors.Wrap(err, "parse technician id")
	}
	if s.StartTime, err = sqlite.ParseTime(startTime); err != nil {
		return nil, err
	}
	if s.EndTime, err = sqlite.ParseTime(endTime); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = sqlite.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	if s.Metadata, err = decodeMetadata([]byte(metadata)); err != nil {
		return nil, err
	}
	return domain.RehydrateScheduleBlock(s), nil
}
