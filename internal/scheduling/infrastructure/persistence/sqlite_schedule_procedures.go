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

// SQLiteScheduleProcedures runs the atomic scheduling operations in-process.
// Each call executes inside the transaction carried by ctx, or opens its own.
// The SQLite pool holds a single connection, so a transaction serializes
// every writer the way the PostgreSQL advisory lock does.
type SQLiteScheduleProcedures struct {
	conn        database.Connection
	blocks      *SQLiteBlockRepository
	events      *SQLiteEventRepository
	backlog     *SQLiteBacklogRepository
	technicians *SQLiteTechnicianDirectory
	now         func() time.Time
}

// NewSQLiteScheduleProcedures creates the local procedure set.
func NewSQLiteScheduleProcedures(conn database.Connection) *SQLiteScheduleProcedures {
	return &SQLiteScheduleProcedures{
		conn:        conn,
		blocks:      NewSQLiteBlockRepository(conn),
		events:      NewSQLiteEventRepository(conn),
		backlog:     NewSQLiteBacklogRepository(conn),
		technicians: NewSQLiteTechnicianDirectory(conn),
		now:         time.Now,
	}
}

func (p *SQLiteScheduleProcedures) MoveBlock(ctx context.Context, blockID uuid.UUID, technicianID *uuid.UUID, tr domain.TimeRange) (domain.MoveResult, error) {
	if !tr.End.After(tr.Start) {
		return domain.MoveResult{}, domain.ErrInvalidTimeRange
	}

	var result domain.MoveResult
	err := p.inTx(ctx, func(ctx context.Context, exec database.Executor) error {
		var orgID string
		err := exec.QueryRow(ctx, `SELECT organization_id FROM schedule_blocks WHERE id = ?`, blockID.String()).Scan(&orgID)
		if database.IsNoRows(err) {
			result = domain.MoveResult{Success: false, BlockID: blockID}
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "lock schedule block %s", blockID)
		}

		conflict, err := sqliteHasConflict(ctx, exec, orgID, technicianID, tr, &blockID)
		if err != nil {
			return err
		}

		_, err = exec.Exec(ctx, `
			UPDATE schedule_blocks
			SET technician_id = ?, start_time = ?, end_time = ?, is_conflict = ?, updated_at = ?
			WHERE id = ?
		`,
			nullUUIDString(technicianID),
			sqlite.FormatTime(tr.Start),
			sqlite.FormatTime(tr.End),
			boolInt(conflict),
			sqlite.FormatTime(p.now()),
			blockID.String(),
		)
		if err != nil {
			return errors.Wrapf(err, "move schedule block %s", blockID)
		}

		result = domain.MoveResult{Success: true, Conflict: conflict, BlockID: blockID}
		return nil
	})
	if err != nil {
		return domain.MoveResult{}, err
	}
	return result, nil
}

func (p *SQLiteScheduleProcedures) AssignJob(ctx context.Context, params domain.AssignJobParams) (domain.AssignResult, error) {
	if !params.Range.End.After(params.Range.Start) {
		return domain.AssignResult{}, domain.ErrInvalidTimeRange
	}

	var result domain.AssignResult
	err := p.inTx(ctx, func(ctx context.Context, exec database.Executor) error {
		var (
			title, status      string
			assignee, location sql.NullString
			clientName         sql.NullString
		)
		err := exec.QueryRow(ctx, `
			SELECT j.title, j.status, j.assignee_id, j.location, c.name
			FROM jobs j
			LEFT JOIN clients c ON c.id = j.client_id
			WHERE j.id = ? AND j.organization_id = ? AND j.deleted_at IS NULL
		`, params.JobID.String(), params.OrganizationID.String()).Scan(&title, &status, &assignee, &location, &clientName)
		if database.IsNoRows(err) {
			return domain.ErrJobNotFound
		}
		if err != nil {
			return errors.Wrapf(err, "load job %s", params.JobID)
		}
		if assignee.Valid || (status != domain.JobStatusBacklog && status != domain.JobStatusTodo) {
			return domain.ErrJobNotInBacklog
		}

		technicianID := params.TechnicianID
		conflict, err := sqliteHasConflict(ctx, exec, params.OrganizationID.String(), &technicianID, params.Range, nil)
		if err != nil {
			return err
		}

		now := sqlite.FormatTime(p.now())
		_, err = exec.Exec(ctx, `
			INSERT INTO schedule_blocks (
				id, organization_id, job_id, technician_id, title, client_name, location,
				start_time, end_time, status, is_conflict, metadata, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'scheduled', ?, '{}', ?, ?)
		`,
			params.BlockID.String(),
			params.OrganizationID.String(),
			params.JobID.String(),
			technicianID.String(),
			title,
			clientName,
			location,
			sqlite.FormatTime(params.Range.Start),
			sqlite.FormatTime(params.Range.End),
			boolInt(conflict),
			now,
			now,
		)
		if err != nil {
			return errors.Wrapf(err, "insert block for job %s", params.JobID)
		}

		_, err = exec.Exec(ctx, `UPDATE jobs SET assignee_id = ?, status = ?, updated_at = ? WHERE id = ?`,
			technicianID.String(), domain.JobStatusScheduled, now, params.JobID.String())
		if err != nil {
			return errors.Wrapf(err, "schedule job %s", params.JobID)
		}

		result = domain.AssignResult{BlockID: params.BlockID, JobID: params.JobID, Conflict: conflict}
		return nil
	})
	if err != nil {
		return domain.AssignResult{}, err
	}
	return result, nil
}

// DayView reads all four sections inside one transaction so they share a snapshot.
func (p *SQLiteScheduleProcedures) DayView(ctx context.Context, organizationID uuid.UUID, dayStart, dayEnd time.Time) (*domain.DayView, error) {
	view := &domain.DayView{Date: dayStart}
	err := p.inTx(ctx, func(txCtx context.Context, _ database.Executor) error {
		var err error
		if view.Technicians, err = p.technicians.ListTechnicians(txCtx, organizationID); err != nil {
			return err
		}
		if view.Blocks, err = p.blocks.ListByDay(txCtx, organizationID, dayStart, dayEnd); err != nil {
			return err
		}
		if view.Events, err = p.events.ListByDay(txCtx, organizationID, dayStart, dayEnd); err != nil {
			return err
		}
		view.Backlog, err = p.backlog.ListBacklog(txCtx, organizationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// inTx joins the transaction in ctx or runs fn in a new one. fn receives a
// context carrying the transaction so repositories join it too.
func (p *SQLiteScheduleProcedures) inTx(ctx context.Context, fn func(ctx context.Context, exec database.Executor) error) error {
	if info, ok := database.TxInfoFromContext(ctx); ok {
		return fn(ctx, info.Tx)
	}

	tx, err := p.conn.BeginTx(ctx)
	if err != nil {
		return errors.Wrap(err, "begin schedule procedure")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(database.WithTx(ctx, tx, true), tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func sqliteHasConflict(ctx context.Context, exec database.Executor, organizationID string, technicianID *uuid.UUID, tr domain.TimeRange, exclude *uuid.UUID) (bool, error) {
	if technicianID == nil {
		return false, nil
	}
	var conflict int64
	err := exec.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM schedule_blocks
			WHERE organization_id = ?
			  AND technician_id = ?
			  AND status <> 'cancelled'
			  AND (? IS NULL OR id <> ?)
			  AND start_time <= ?
			  AND end_time >= ?
		)
	`,
		organizationID,
		technicianID.String(),
		nullUUIDString(exclude),
		nullUUIDString(exclude),
		sqlite.FormatTime(tr.End),
		sqlite.FormatTime(tr.Start),
	).Scan(&conflict)
	if err != nil {
		return false, errors.Wrap(err, "check technician conflicts")
	}
	return conflict != 0, nil
}
