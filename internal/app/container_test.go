package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/commands"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/infrastructure/cache"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database/sqlite"
	"github.com/iworkr/iworkr-stack-sub004/pkg/config"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

const testUserID = "00000000-0000-0000-0000-000000000001"

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:                   "test",
		DatabaseDriver:           "auto",
		SQLitePath:               filepath.Join(t.TempDir(), "schedule.db"),
		UserID:                   testUserID,
		OrganizationID:           "6f1c2f2e-8d7e-4d7a-9a57-0b7f3c1f5e01",
		DayViewCacheTTL:          time.Minute,
		OutboxPollInterval:       10 * time.Millisecond,
		OutboxBatchSize:          10,
		OutboxMaxRetries:         3,
		ProcedureBreakerFailures: 3,
		ProcedureBreakerTimeout:  time.Second,
	}
}

func TestNewContainer_LocalMode(t *testing.T) {
	ctx := context.Background()
	cfg := localConfig(t)

	container, err := NewContainer(ctx, cfg, nil)
	require.NoError(t, err)
	defer container.Close()

	assert.Equal(t, database.DriverSQLite, container.DBDriver)
	assert.Nil(t, container.RedisClient)
	assert.IsType(t, &cache.MemoryDayViewCache{}, container.DayViewCache)
	assert.NotNil(t, container.OutboxProcessor)
	assert.Equal(t, uuid.MustParse(cfg.OrganizationID), container.DefaultOrganizationID())

	health := container.Health.Check(ctx)
	assert.Equal(t, observability.HealthStatusHealthy, health.Status)
	assert.Contains(t, health.Checks, "database")
	assert.NotContains(t, health.Checks, "redis")
}

func TestNewContainer_EndToEnd(t *testing.T) {
	ctx := context.Background()
	container, err := NewContainer(ctx, localConfig(t), nil)
	require.NoError(t, err)
	defer container.Close()

	orgID := container.DefaultOrganizationID()
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	first, err := container.CreateBlockHandler.Handle(ctx, commands.CreateBlockCommand{
		OrganizationID: orgID,
		Title:          "Site survey",
		StartTime:      day.Add(9 * time.Hour),
		EndTime:        day.Add(10 * time.Hour),
	})
	require.NoError(t, err)
	assert.False(t, first.IsConflict())

	view, err := container.GetDayViewHandler.Handle(ctx, queries.GetDayViewQuery{OrganizationID: orgID, Date: day})
	require.NoError(t, err)
	assert.Equal(t, "aggregate", view.Source)
	require.Len(t, view.Blocks, 1)

	cached, err := container.GetDayViewHandler.Handle(ctx, queries.GetDayViewQuery{OrganizationID: orgID, Date: day})
	require.NoError(t, err)
	assert.Equal(t, "cache", cached.Source)

	// A write on the same day drops the cached view.
	_, err = container.CreateBlockHandler.Handle(ctx, commands.CreateBlockCommand{
		OrganizationID: orgID,
		Title:          "Quote follow-up",
		StartTime:      day.Add(11 * time.Hour),
		EndTime:        day.Add(12 * time.Hour),
	})
	require.NoError(t, err)

	fresh, err := container.GetDayViewHandler.Handle(ctx, queries.GetDayViewQuery{OrganizationID: orgID, Date: day})
	require.NoError(t, err)
	assert.Equal(t, "aggregate", fresh.Source)
	assert.Len(t, fresh.Blocks, 2)

	pending, err := container.OutboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, container.OutboxProcessor.ProcessOnce(ctx))
	pending, err = container.OutboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	families, err := container.MetricsRegistry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "iworkr_schedule_day_view_served_total")
}

func TestNewContainer_AssignmentClearsBacklogOnEveryDay(t *testing.T) {
	ctx := context.Background()
	container, err := NewContainer(ctx, localConfig(t), nil)
	require.NoError(t, err)
	defer container.Close()

	orgID := container.DefaultOrganizationID()
	today := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	techID := uuid.New()
	_, err = container.DBConn.Exec(ctx, `INSERT INTO profiles (id, full_name, email) VALUES (?, ?, ?)`,
		techID.String(), "Sam Carter", "sam@example.com")
	require.NoError(t, err)
	_, err = container.DBConn.Exec(ctx,
		`INSERT INTO organization_members (organization_id, user_id, role, status) VALUES (?, ?, 'technician', 'active')`,
		orgID.String(), techID.String())
	require.NoError(t, err)

	jobID := uuid.New()
	created := sqlite.FormatTime(today.Add(-24 * time.Hour))
	_, err = container.DBConn.Exec(ctx, `
		INSERT INTO jobs (id, organization_id, display_id, title, status, priority, created_at, updated_at)
		VALUES (?, ?, 'JOB-1', 'Replace valve', 'backlog', 'high', ?, ?)
	`, jobID.String(), orgID.String(), created, created)
	require.NoError(t, err)

	before, err := container.GetDayViewHandler.Handle(ctx, queries.GetDayViewQuery{OrganizationID: orgID, Date: today})
	require.NoError(t, err)
	require.Len(t, before.Backlog, 1)

	_, err = container.AssignJobHandler.Handle(ctx, commands.AssignJobCommand{
		OrganizationID: orgID,
		JobID:          jobID,
		TechnicianID:   techID,
		StartTime:      tomorrow.Add(9 * time.Hour),
		EndTime:        tomorrow.Add(11 * time.Hour),
	})
	require.NoError(t, err)

	after, err := container.GetDayViewHandler.Handle(ctx, queries.GetDayViewQuery{OrganizationID: orgID, Date: today})
	require.NoError(t, err)
	assert.Equal(t, "cache", after.Source)
	assert.Empty(t, after.Backlog)

	next, err := container.GetDayViewHandler.Handle(ctx, queries.GetDayViewQuery{OrganizationID: orgID, Date: tomorrow})
	require.NoError(t, err)
	assert.Empty(t, next.Backlog)
	require.Len(t, next.Blocks, 1)
	assert.Equal(t, &jobID, next.Blocks[0].JobID)
}

func TestNewContainer_WithoutConfiguredUser(t *testing.T) {
	ctx := context.Background()
	cfg := localConfig(t)
	cfg.UserID = ""

	container, err := NewContainer(ctx, cfg, nil)
	require.NoError(t, err)
	defer container.Close()

	_, err = container.CreateBlockHandler.Handle(ctx, commands.CreateBlockCommand{
		OrganizationID: container.DefaultOrganizationID(),
		Title:          "Site survey",
		StartTime:      time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestNewContainer_RedisFallbackInDevelopment(t *testing.T) {
	cfg := localConfig(t)
	cfg.AppEnv = "development"
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	container, err := NewContainer(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer container.Close()

	assert.Nil(t, container.RedisClient)
	assert.IsType(t, &cache.MemoryDayViewCache{}, container.DayViewCache)
}

func TestNewContainer_RedisRequiredOutsideDevelopment(t *testing.T) {
	cfg := localConfig(t)
	cfg.AppEnv = "production"
	cfg.RedisURL = "://not-a-url"

	_, err := NewContainer(context.Background(), cfg, nil)
	assert.Error(t, err)
}

type stubConnection struct {
	database.Connection
	driver database.Driver
}

func (s stubConnection) Driver() database.Driver { return s.driver }

func TestRepositoryFactory(t *testing.T) {
	for _, driver := range []database.Driver{database.DriverSQLite, database.DriverPostgres} {
		t.Run(string(driver), func(t *testing.T) {
			factory := NewRepositoryFactory(stubConnection{driver: driver})
			assert.Equal(t, driver, factory.Driver())

			repos, err := factory.Build()
			require.NoError(t, err)
			assert.NotNil(t, repos.Blocks)
			assert.NotNil(t, repos.Events)
			assert.NotNil(t, repos.Backlog)
			assert.NotNil(t, repos.Technicians)
			assert.NotNil(t, repos.Procedures)
			assert.NotNil(t, repos.Outbox)
		})
	}

	_, err := NewRepositoryFactory(stubConnection{driver: "mysql"}).Build()
	assert.Error(t, err)
}
