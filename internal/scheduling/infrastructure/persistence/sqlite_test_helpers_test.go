package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database/sqlite"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/migrations"
)

var testDay = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return testDay.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

// setupSQLite opens a migrated database file under the test's temp dir.
func setupSQLite(t *testing.T) database.Connection {
	t.Helper()
	ctx := context.Background()

	conn, err := sqlite.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "schedule.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, migrations.Up(ctx, conn, nil))
	return conn
}

func seedTechnician(t *testing.T, conn database.Connection, orgID uuid.UUID, fullName, email string) uuid.UUID {
	t.Helper()
	return seedMember(t, conn, orgID, fullName, email, "technician", "active")
}

func seedMember(t *testing.T, conn database.Connection, orgID uuid.UUID, fullName, email, role, status string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()

	_, err := conn.Exec(ctx, `INSERT INTO profiles (id, full_name, email) VALUES (?, ?, ?)`, id.String(), fullName, email)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, `INSERT INTO organization_members (organization_id, user_id, role, status) VALUES (?, ?, ?, ?)`,
		orgID.String(), id.String(), role, status)
	require.NoError(t, err)
	return id
}

type jobSeed struct {
	orgID      uuid.UUID
	displayID  string
	title      string
	status     string
	assignee   *uuid.UUID
	clientName string
	createdAt  time.Time
	deleted    bool
}

func seedJob(t *testing.T, conn database.Connection, s jobSeed) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()

	if s.status == "" {
		s.status = domain.JobStatusBacklog
	}
	if s.createdAt.IsZero() {
		s.createdAt = at(8, 0)
	}
	var clientID any
	if s.clientName != "" {
		cid := uuid.New()
		_, err := conn.Exec(ctx, `INSERT INTO clients (id, organization_id, name) VALUES (?, ?, ?)`,
			cid.String(), s.orgID.String(), s.clientName)
		require.NoError(t, err)
		clientID = cid.String()
	}
	var deletedAt any
	if s.deleted {
		deletedAt = sqlite.FormatTime(s.createdAt)
	}

	_, err := conn.Exec(ctx, `
		INSERT INTO jobs (
			id, organization_id, display_id, title, status, priority, client_id, assignee_id,
			location, estimated_duration_minutes, created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, 'high', ?, ?, '12 Harbour St', 90, ?, ?, ?)
	`,
		id.String(), s.orgID.String(), s.displayID, s.title, s.status, clientID, nullUUIDString(s.assignee),
		sqlite.FormatTime(s.createdAt), sqlite.FormatTime(s.createdAt), deletedAt,
	)
	require.NoError(t, err)
	return id
}

func newTestBlock(t *testing.T, orgID uuid.UUID, techID *uuid.UUID, start, end time.Time) *domain.ScheduleBlock {
	t.Helper()
	block, err := domain.NewScheduleBlock(domain.BlockParams{
		OrganizationID: orgID,
		TechnicianID:   techID,
		Title:          "Boiler service",
		StartTime:      start,
		EndTime:        end,
	})
	require.NoError(t, err)
	return block
}

func ptr[T any](v T) *T {
	return &v
}
