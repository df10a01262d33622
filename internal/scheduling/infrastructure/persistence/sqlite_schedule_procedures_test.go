package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database/sqlite"
)

func mustRange(t *testing.T, sh, sm, eh, em int) domain.TimeRange {
	t.Helper()
	tr, err := domain.NewTimeRange(at(sh, sm), at(eh, em))
	require.NoError(t, err)
	return tr
}

func TestSQLiteScheduleProcedures_MoveBlock(t *testing.T) {
	ctx := context.Background()
	conn := setupSQLite(t)
	blocks := NewSQLiteBlockRepository(conn)
	procs := NewSQLiteScheduleProcedures(conn)

	orgID, techA, techB := uuid.New(), uuid.New(), uuid.New()
	existing := newTestBlock(t, orgID, &techB, at(13, 0), at(14, 0))
	moving := newTestBlock(t, orgID, &techA, at(9, 0), at(10, 0))
	require.NoError(t, blocks.Create(ctx, existing))
	require.NoError(t, blocks.Create(ctx, moving))

	t.Run("onto an occupied slot flags the conflict", func(t *testing.T) {
		result, err := procs.MoveBlock(ctx, moving.ID(), &techB, mustRange(t, 13, 30, 14, 30))
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.True(t, result.Conflict)
		assert.Equal(t, moving.ID(), result.BlockID)

		found, err := blocks.FindByID(ctx, moving.ID())
		require.NoError(t, err)
		assert.Equal(t, techB, *found.TechnicianID())
		assert.True(t, found.IsConflict())
	})

	t.Run("to a free slot clears the flag", func(t *testing.T) {
		result, err := procs.MoveBlock(ctx, moving.ID(), &techB, mustRange(t, 15, 0, 16, 0))
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.False(t, result.Conflict)

		found, err := blocks.FindByID(ctx, moving.ID())
		require.NoError(t, err)
		assert.False(t, found.IsConflict())
	})

	t.Run("does not conflict with itself", func(t *testing.T) {
		result, err := procs.MoveBlock(ctx, moving.ID(), &techB, mustRange(t, 15, 30, 16, 30))
		require.NoError(t, err)
		assert.False(t, result.Conflict)
	})

	t.Run("unassigning never conflicts", func(t *testing.T) {
		result, err := procs.MoveBlock(ctx, moving.ID(), nil, mustRange(t, 13, 0, 14, 0))
		require.NoError(t, err)
		assert.False(t, result.Conflict)
	})

	t.Run("unknown block", func(t *testing.T) {
		result, err := procs.MoveBlock(ctx, uuid.New(), &techA, mustRange(t, 9, 0, 10, 0))
		require.NoError(t, err)
		assert.False(t, result.Success)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := procs.MoveBlock(ctx, moving.ID(), &techA, domain.TimeRange{Start: at(10, 0), End: at(9, 0)})
		assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
	})
}

func TestSQLiteScheduleProcedures_AssignJob(t *testing.T) {
	ctx := context.Background()
	conn := setupSQLite(t)
	blocks := NewSQLiteBlockRepository(conn)
	backlog := NewSQLiteBacklogRepository(conn)
	procs := NewSQLiteScheduleProcedures(conn)

	orgID := uuid.New()
	techID := seedTechnician(t, conn, orgID, "Avery Quinn", "avery@example.com")
	jobID := seedJob(t, conn, jobSeed{orgID: orgID, displayID: "JOB-7", title: "Replace valve", clientName: "Harbour Cafe"})

	busy := newTestBlock(t, orgID, &techID, at(9, 0), at(10, 0))
	require.NoError(t, blocks.Create(ctx, busy))

	params := domain.AssignJobParams{
		BlockID:        uuid.New(),
		OrganizationID: orgID,
		JobID:          jobID,
		TechnicianID:   techID,
		Range:          mustRange(t, 9, 30, 11, 0),
	}
	result, err := procs.AssignJob(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, params.BlockID, result.BlockID)
	assert.Equal(t, jobID, result.JobID)
	assert.True(t, result.Conflict)

	block, err := blocks.FindByID(ctx, params.BlockID)
	require.NoError(t, err)
	assert.Equal(t, "Replace valve", block.Title())
	assert.Equal(t, "Harbour Cafe", *block.ClientName())
	assert.Equal(t, "12 Harbour St", *block.Location())
	assert.Equal(t, jobID, *block.JobID())
	assert.Equal(t, domain.BlockStatusScheduled, block.Status())
	assert.True(t, block.IsConflict())

	var status, assignee string
	require.NoError(t, conn.QueryRow(ctx, `SELECT status, assignee_id FROM jobs WHERE id = ?`, jobID.String()).Scan(&status, &assignee))
	assert.Equal(t, domain.JobStatusScheduled, status)
	assert.Equal(t, techID.String(), assignee)

	remaining, err := backlog.ListBacklog(ctx, orgID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	t.Run("job already scheduled", func(t *testing.T) {
		again := params
		again.BlockID = uuid.New()
		_, err := procs.AssignJob(ctx, again)
		assert.ErrorIs(t, err, domain.ErrJobNotInBacklog)
		assert.ErrorIs(t, err, domain.ErrValidationFailed)
	})

	t.Run("unknown job", func(t *testing.T) {
		missing := params
		missing.BlockID = uuid.New()
		missing.JobID = uuid.New()
		_, err := procs.AssignJob(ctx, missing)
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
	})

	t.Run("job from another organization", func(t *testing.T) {
		foreign := seedJob(t, conn, jobSeed{orgID: uuid.New(), displayID: "JOB-8", title: "Foreign"})
		other := params
		other.BlockID = uuid.New()
		other.JobID = foreign
		_, err := procs.AssignJob(ctx, other)
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
	})
}

func TestSQLiteScheduleProcedures_AssignJobRollsBackWithUnitOfWork(t *testing.T) {
	ctx := context.Background()
	conn := setupSQLite(t)
	procs := NewSQLiteScheduleProcedures(conn)
	uow := database.NewUnitOfWork(conn)

	orgID, techID := uuid.New(), uuid.New()
	jobID := seedJob(t, conn, jobSeed{orgID: orgID, displayID: "JOB-9", title: "Gutter clean"})

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	_, err = procs.AssignJob(txCtx, domain.AssignJobParams{
		BlockID:        uuid.New(),
		OrganizationID: orgID,
		JobID:          jobID,
		TechnicianID:   techID,
		Range:          mustRange(t, 9, 0, 10, 0),
	})
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(txCtx))

	jobs, err := NewSQLiteBacklogRepository(conn).ListBacklog(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, jobID, jobs[0].ID)
}

func TestSQLiteScheduleProcedures_MoveBlockRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	procs := NewSQLiteScheduleProcedures(sqlite.NewConnectionFromDB(db))
	blockID, orgID, techID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT organization_id FROM schedule_blocks`).
		WithArgs(blockID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"organization_id"}).AddRow(orgID.String()))
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, err = procs.MoveBlock(context.Background(), blockID, &techID, mustRange(t, 9, 0, 10, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check technician conflicts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteScheduleProcedures_DayView(t *testing.T) {
	ctx := context.Background()
	conn := setupSQLite(t)
	procs := NewSQLiteScheduleProcedures(conn)

	orgID := uuid.New()
	techID := seedTechnician(t, conn, orgID, "Avery Quinn", "avery@example.com")
	seedJob(t, conn, jobSeed{orgID: orgID, displayID: "JOB-1", title: "Leaking tap"})

	block := newTestBlock(t, orgID, &techID, at(9, 0), at(10, 0))
	require.NoError(t, NewSQLiteBlockRepository(conn).Create(ctx, block))
	require.NoError(t, NewSQLiteEventRepository(conn).Create(ctx, newTestEvent(t, orgID, domain.EventTypeBreak, 12, 13)))

	dayStart, dayEnd := domain.DayBounds(testDay)
	view, err := procs.DayView(ctx, orgID, dayStart, dayEnd)
	require.NoError(t, err)

	assert.True(t, dayStart.Equal(view.Date))
	require.Len(t, view.Technicians, 1)
	assert.Equal(t, "Avery Quinn", view.Technicians[0].DisplayName)
	require.Len(t, view.Blocks, 1)
	assert.Equal(t, "Avery Quinn", view.Blocks[0].TechnicianName())
	assert.Len(t, view.Events, 1)
	assert.Len(t, view.Backlog, 1)

	empty, err := procs.DayView(ctx, uuid.New(), dayStart, dayEnd)
	require.NoError(t, err)
	assert.Empty(t, empty.Blocks)
	assert.NotNil(t, empty.Blocks)
}
