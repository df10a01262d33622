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

const sqliteEventColumns = `
	SELECT id, organization_id, user_id, type, title, start_time, end_time, notes, created_at
	FROM schedule_events
`

// SQLiteEventRepository implements domain.EventRepository for local mode.
type SQLiteEventRepository struct {
	conn database.Connection
}

// NewSQLiteEventRepository creates a new SQLite event repository.
func NewSQLiteEventRepository(conn database.Connection) *SQLiteEventRepository {
	return &SQLiteEventRepository{conn: conn}
}

func (r *SQLiteEventRepository) Create(ctx context.Context, event *domain.ScheduleEvent) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO schedule_events (
			id, organization_id, user_id, type, title, start_time, end_time, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID().String(),
		event.OrganizationID().String(),
		event.UserID().String(),
		string(event.Type()),
		event.Title(),
		sqlite.FormatTime(event.StartTime()),
		sqlite.FormatTime(event.EndTime()),
		nullString(event.Notes()),
		sqlite.FormatTime(event.CreatedAt()),
	)
	if err != nil {
		return errors.Wrapf(err, "insert schedule event %s", event.ID())
	}
	return nil
}

func (r *SQLiteEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleEvent, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	event, err := scanSQLiteEvent(exec.QueryRow(ctx, sqliteEventColumns+` WHERE id = ?`, id.String()))
	if database.IsNoRows(err) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *SQLiteEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `DELETE FROM schedule_events WHERE id = ?`, id.String())
	if err != nil {
		return errors.Wrapf(err, "delete schedule event %s", id)
	}
	return requireAffected(result, domain.ErrEventNotFound)
}

func (r *SQLiteEventRepository) ListByDay(ctx context.Context, organizationID uuid.UUID, dayStart, dayEnd time.Time) ([]*domain.ScheduleEvent, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, sqliteEventColumns+`
		WHERE organization_id = ? AND start_time >= ? AND start_time <= ?
		ORDER BY start_time, id
	`, organizationID.String(), sqlite.FormatTime(dayStart), sqlite.FormatTime(dayEnd))
	if err != nil {
		return nil, errors.Wrap(err, "query schedule events")
	}
	defer rows.Close()

	events := make([]*domain.ScheduleEvent, 0)
	for rows.Next() {
		event, err := scanSQLiteEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanSQLiteEvent(row database.Row) (*domain.ScheduleEvent, error) {
	var (
		id, orgID, userID, eventType, title string
		startTime, endTime, createdAt       string
		notes                               sql.NullString
	)
	if err := row.Scan(&id, &orgID, &userID, &eventType, &title, &startTime, &endTime, &notes, &createdAt); err != nil {
		if database.IsNoRows(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan schedule event")
	}

	eventID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Wrap(err, "parse event id")
	}
	organizationID, err := uuid.Parse(orgID)
	if err != nil {
		return nil, errors.Wrap(err, "parse organization id")
	}
	user, err := uuid.Parse(userID)
	if err != nil {
		return nil, errors.Wrap(err, "parse user id")
	}
	start, err := sqlite.ParseTime(startTime)
	if err != nil {
		return nil, err
	}
	end, err := sqlite.ParseTime(endTime)
	if err != nil {
		return nil, err
	}
	created, err := sqlite.ParseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateScheduleEvent(
		eventID, organizationID, user,
		domain.EventType(eventType),
		title,
		start, end,
		stringPtr(notes),
		created,
	), nil
}
