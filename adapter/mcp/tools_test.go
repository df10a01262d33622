package mcp

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iworkr/iworkr-stack-sub004/adapter/cli"
	internalApp "github.com/iworkr/iworkr-stack-sub004/internal/app"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/pkg/config"
)

var testOrgID = uuid.MustParse("6f1c2f2e-8d7e-4d7a-9a57-0b7f3c1f5e01")

func newTestTools(t *testing.T) (*scheduleTools, *internalApp.Container) {
	t.Helper()
	cfg := &config.Config{
		AppEnv:                   "test",
		DatabaseDriver:           "sqlite",
		SQLitePath:               filepath.Join(t.TempDir(), "mcp.db"),
		UserID:                   "00000000-0000-0000-0000-000000000001",
		OrganizationID:           testOrgID.String(),
		DayViewCacheTTL:          time.Minute,
		OutboxPollInterval:       time.Second,
		OutboxBatchSize:          10,
		OutboxMaxRetries:         3,
		ProcedureBreakerFailures: 3,
		ProcedureBreakerTimeout:  time.Second,
	}
	container, err := internalApp.NewContainer(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	tools := newScheduleTools(cli.NewApp(container))
	tools.now = func() time.Time { return time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC) }
	return tools, container
}

func seedTechnician(t *testing.T, c *internalApp.Container) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()
	_, err := c.DBConn.Exec(ctx, `INSERT INTO profiles (id, full_name, email) VALUES (?, 'Casey Lin', 'casey@example.com')`, id.String())
	require.NoError(t, err)
	_, err = c.DBConn.Exec(ctx,
		`INSERT INTO organization_members (organization_id, user_id, role, status) VALUES (?, ?, 'technician', 'active')`,
		testOrgID.String(), id.String())
	require.NoError(t, err)
	return id
}

func TestRegisterCLITools_ListTools(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools: true,
		},
	})

	app := &cli.App{}
	require.NoError(t, RegisterCLITools(srv, ToolDependencies{App: app}))

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := make(map[any]bool, len(tools))
	for _, tool := range tools {
		names[tool["name"]] = true
	}
	for _, want := range []string{
		"cli.health",
		"schedule.day_view",
		"schedule.create_block",
		"schedule.update_block",
		"schedule.move_block",
		"schedule.assign_job",
		"schedule.conflicts",
		"schedule.create_event",
	} {
		assert.True(t, names[want], "%s should be registered", want)
	}
}

func TestRegisterCLITools_RequiresApp(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{Name: "test", Version: "1.0.0"})
	require.Error(t, RegisterCLITools(nil, ToolDependencies{}))
	require.Error(t, RegisterCLITools(srv, ToolDependencies{}))
	require.NoError(t, RegisterResources(srv, ToolDependencies{App: &cli.App{}}))
	require.NoError(t, RegisterPrompts(srv, ToolDependencies{}))
}

func TestScheduleTools_WithoutDatabase(t *testing.T) {
	tools := newScheduleTools(&cli.App{})
	_, err := tools.dayView(context.Background(), scheduleDayInput{})
	assert.ErrorIs(t, err, errNoDatabase)
	_, err = tools.createEvent(context.Background(), eventCreateInput{})
	assert.ErrorIs(t, err, errNoDatabase)
}

func TestScheduleTools_BlockFlow(t *testing.T) {
	ctx := context.Background()
	tools, c := newTestTools(t)
	tech := seedTechnician(t, c)

	first, err := tools.createBlock(ctx, scheduleCreateBlockInput{
		Title:        "Boiler service",
		StartTime:    "09:00",
		EndTime:      "10:00",
		TechnicianID: tech.String(),
		Metadata:     map[string]any{"source": "mcp"},
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC), first.StartTime.UTC())
	assert.False(t, first.IsConflict)

	second, err := tools.createBlock(ctx, scheduleCreateBlockInput{
		Title:        "Leak check",
		StartTime:    "2025-03-14T09:30:00Z",
		EndTime:      "2025-03-14T11:00:00Z",
		TechnicianID: tech.String(),
	})
	require.NoError(t, err)
	assert.True(t, second.IsConflict)

	conflicts, err := tools.conflicts(ctx, scheduleOrgInput{})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)

	moved, err := tools.moveBlock(ctx, scheduleMoveBlockInput{
		BlockID:   second.ID.String(),
		StartTime: "12:00",
		EndTime:   "13:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "atomic", moved.Tier)
	assert.False(t, moved.Conflict)

	updated, err := tools.updateBlock(ctx, scheduleUpdateBlockInput{
		BlockID: first.ID.String(),
		Fields:  map[string]any{"status": "in_progress", "technician_id": nil},
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.BlockStatusInProgress), updated.Status)
	assert.Nil(t, updated.TechnicianID)

	_, err = tools.updateBlock(ctx, scheduleUpdateBlockInput{
		BlockID: first.ID.String(),
		Fields:  map[string]any{"colour": "red"},
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "colour")

	resized, err := tools.resizeBlock(ctx, scheduleResizeBlockInput{BlockID: second.ID.String(), EndTime: "14:15"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 14, 15, 0, 0, time.UTC), resized.EndTime.UTC())

	grouped, err := tools.listBlocks(ctx, scheduleDayInput{Date: "2025-03-14"})
	require.NoError(t, err)
	assert.Len(t, grouped[tech.String()], 1)
	assert.Len(t, grouped[domain.UnassignedKey], 1)

	view, err := tools.dayView(ctx, scheduleDayInput{})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", view.Date)
	assert.Len(t, view.Blocks, 2)

	deleted, err := tools.deleteBlock(ctx, scheduleDeleteBlockInput{BlockID: first.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, true, deleted["deleted"])

	_, err = tools.deleteBlock(ctx, scheduleDeleteBlockInput{BlockID: first.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduleTools_InputValidation(t *testing.T) {
	ctx := context.Background()
	tools, _ := newTestTools(t)

	_, err := tools.createBlock(ctx, scheduleCreateBlockInput{Title: "x", StartTime: "9am", EndTime: "10:00"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start_time")

	_, err = tools.listBlocks(ctx, scheduleDayInput{Date: "03/14/2025"})
	require.Error(t, err)

	_, err = tools.moveBlock(ctx, scheduleMoveBlockInput{BlockID: "", StartTime: "09:00", EndTime: "10:00"})
	require.Error(t, err)

	_, err = tools.assignJob(ctx, scheduleAssignJobInput{JobID: uuid.NewString(), TechnicianID: "nope", StartTime: "09:00", EndTime: "10:00"})
	require.Error(t, err)
}

func TestScheduleTools_Events(t *testing.T) {
	ctx := context.Background()
	tools, _ := newTestTools(t)

	event, err := tools.createEvent(ctx, eventCreateInput{Type: "Break", Title: "Lunch", StartTime: "12:00", EndTime: "12:30"})
	require.NoError(t, err)
	assert.Equal(t, "break", event.Type)

	events, err := tools.listEvents(ctx, scheduleDayInput{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	_, err = tools.deleteEvent(ctx, eventDeleteInput{EventID: event.ID.String()})
	require.NoError(t, err)

	_, err = tools.deleteEvent(ctx, eventDeleteInput{EventID: event.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParseInstant(t *testing.T) {
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	got, err := parseInstant("start_time", day, "08:15")
	require.NoError(t, err)
	assert.Equal(t, day.Add(8*time.Hour+15*time.Minute), got)

	got, err = parseInstant("start_time", day, "2025-03-14T08:15:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, day.Add(13*time.Hour+15*time.Minute), got)

	_, err = parseInstant("end_time", day, "")
	assert.Error(t, err)
}
