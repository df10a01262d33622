package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database"
)

const postgresEventColumns = `
	SELECT id, organization_id, user_id, type, title, start_time, end_time, notes, created_at
	FROM schedule_events
`

// PostgresEventRepository implements domain.EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	conn database.Connection
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(conn database.Connection) *PostgresEventRepository {
	return &PostgresEventRepository{conn: conn}
}

func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.ScheduleEvent) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO schedule_events (
			id, organization_id, user_id, type, title, start_time, end_time, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		event.ID(), event.OrganizationID(), event.UserID(), string(event.Type()), event.Title(),
		event.StartTime(), event.EndTime(), event.Notes(), event.CreatedAt(),
	)
	if err != nil {
		return errors.Wrapf(err, "insert schedule event %s", event.ID())
	}
	return nil
}

func (r *PostgresEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleEvent, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	event, err := scanPostgresEvent(exec.QueryRow(ctx, postgresEventColumns+` WHERE id = $1`, id))
	if database.IsNoRows(err) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *PostgresEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `DELETE FROM schedule_events WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete schedule event %s", id)
	}
	return requireAffected(result, domain.ErrEventNotFound)
}

func (r *PostgresEventRepository) ListByDay(ctx context.Context, organizationID uuid.UUID, dayStart, dayEnd time.Time) ([]*domain.ScheduleEvent, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, postgresEventColumns+`
		WHERE organization_id = $1 AND start_time >= $2 AND start_time <= $3
		ORDER BY start_time, id
	`, organizationID, dayStart, dayEnd)
	if err != nil {
		return nil, errors.Wrap(err, "query schedule events")
	}
	defer rows.Close()

	events := make([]*domain.ScheduleEvent, 0)
	for rows.Next() {
		event, err := scanPostgresEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanPostgresEvent(row database.Row) (*domain.ScheduleEvent, error) {
	var (
		id, orgID, userID     uuid.UUID
		eventType, title      string
		start, end, createdAt time.Time
		notes                 *string
	)
	if err := row.Scan(&id, &orgID, &userID, &eventType, &title, &start, &end, &notes, &createdAt); err != nil {
		if database.IsNoRows(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "scan schedule event")
	}
	return domain.RehydrateScheduleEvent(id, orgID, userID, domain.EventType(eventType), title, start, end, notes, createdAt), nil
}
