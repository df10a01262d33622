package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/iworkr/iworkr-stack-sub004/adapter/cli"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/commands"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
)

type scheduleDayInput struct {
	OrganizationID string `json:"organization_id,omitempty"`
	Date           string `json:"date,omitempty"`
}

type scheduleOrgInput struct {
	OrganizationID string `json:"organization_id,omitempty"`
}

type scheduleCreateBlockInput struct {
	OrganizationID string         `json:"organization_id,omitempty"`
	Date           string         `json:"date,omitempty"`
	Title          string         `json:"title" jsonschema:"required"`
	StartTime      string         `json:"start_time" jsonschema:"required"`
	EndTime        string         `json:"end_time" jsonschema:"required"`
	TechnicianID   string         `json:"technician_id,omitempty"`
	JobID          string         `json:"job_id,omitempty"`
	ClientName     string         `json:"client_name,omitempty"`
	Location       string         `json:"location,omitempty"`
	Status         string         `json:"status,omitempty"`
	TravelMinutes  *int           `json:"travel_minutes,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type scheduleUpdateBlockInput struct {
	BlockID string `json:"block_id" jsonschema:"required"`
	// Fields holds the block fields to change. A null value clears a
	// nullable field.
	Fields map[string]any `json:"fields" jsonschema:"required"`
}

type scheduleMoveBlockInput struct {
	BlockID      string `json:"block_id" jsonschema:"required"`
	Date         string `json:"date,omitempty"`
	StartTime    string `json:"start_time" jsonschema:"required"`
	EndTime      string `json:"end_time" jsonschema:"required"`
	TechnicianID string `json:"technician_id,omitempty"`
}

type scheduleResizeBlockInput struct {
	BlockID string `json:"block_id" jsonschema:"required"`
	Date    string `json:"date,omitempty"`
	EndTime string `json:"end_time" jsonschema:"required"`
}

type scheduleAssignJobInput struct {
	OrganizationID string `json:"organization_id,omitempty"`
	JobID          string `json:"job_id" jsonschema:"required"`
	TechnicianID   string `json:"technician_id" jsonschema:"required"`
	Date           string `json:"date,omitempty"`
	StartTime      string `json:"start_time" jsonschema:"required"`
	EndTime        string `json:"end_time" jsonschema:"required"`
}

type scheduleDeleteBlockInput struct {
	BlockID string `json:"block_id" jsonschema:"required"`
}

type moveBlockOutput struct {
	Success         bool   `json:"success"`
	Conflict        bool   `json:"conflict"`
	BlockID         string `json:"block_id"`
	Tier            string `json:"tier"`
	ConflictChecked bool   `json:"conflict_checked"`
}

type assignJobOutput struct {
	Block    queries.BlockDTO `json:"block"`
	JobID    string           `json:"job_id"`
	Conflict bool             `json:"conflict"`
}

// scheduleTools implements the schedule.* tools over the CLI handlers.
type scheduleTools struct {
	app *cli.App
	now func() time.Time
}

func newScheduleTools(app *cli.App) *scheduleTools {
	return &scheduleTools{app: app, now: time.Now}
}

func registerScheduleTools(srv *mcp.Server, deps ToolDependencies) error {
	t := newScheduleTools(deps.App)

	srv.Tool("schedule.day_view").
		Description("Get the dispatch board for a day: technicians, blocks, events and backlog").
		Handler(t.dayView)

	srv.Tool("schedule.list_blocks").
		Description("List schedule blocks for a day grouped by technician id").
		Handler(t.listBlocks)

	srv.Tool("schedule.create_block").
		Description("Create a schedule block. Overlaps are saved and flagged as conflicts").
		Handler(t.createBlock)

	srv.Tool("schedule.update_block").
		Description("Update selected fields of a schedule block").
		Handler(t.updateBlock)

	srv.Tool("schedule.move_block").
		Description("Move a block to new times or another technician").
		Handler(t.moveBlock)

	srv.Tool("schedule.resize_block").
		Description("Change the end time of a block").
		Handler(t.resizeBlock)

	srv.Tool("schedule.assign_job").
		Description("Schedule a backlog job onto a technician").
		Handler(t.assignJob)

	srv.Tool("schedule.delete_block").
		Description("Delete a schedule block").
		Handler(t.deleteBlock)

	srv.Tool("schedule.backlog").
		Description("List jobs waiting to be scheduled").
		Handler(t.backlog)

	srv.Tool("schedule.conflicts").
		Description("List blocks flagged as double bookings").
		Handler(t.conflicts)

	return nil
}

func (t *scheduleTools) dayView(ctx context.Context, input scheduleDayInput) (*queries.DayViewDTO, error) {
	if t.app == nil || t.app.GetDayViewHandler == nil {
		return nil, errNoDatabase
	}
	orgID, err := organizationID(t.app, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(input.Date, t.now())
	if err != nil {
		return nil, err
	}
	return t.app.GetDayViewHandler.Handle(ctx, queries.GetDayViewQuery{OrganizationID: orgID, Date: date})
}

func (t *scheduleTools) listBlocks(ctx context.Context, input scheduleDayInput) (map[string][]queries.BlockDTO, error) {
	if t.app == nil || t.app.ListBlocksHandler == nil {
		return nil, errNoDatabase
	}
	orgID, err := organizationID(t.app, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(input.Date, t.now())
	if err != nil {
		return nil, err
	}
	return t.app.ListBlocksHandler.Handle(ctx, queries.ListBlocksQuery{OrganizationID: orgID, Date: date})
}

func (t *scheduleTools) createBlock(ctx context.Context, input scheduleCreateBlockInput) (*queries.BlockDTO, error) {
	if t.app == nil || t.app.CreateBlockHandler == nil {
		return nil, errNoDatabase
	}
	orgID, err := organizationID(t.app, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(input.Date, t.now())
	if err != nil {
		return nil, err
	}
	start, err := parseInstant("start_time", date, input.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseInstant("end_time", date, input.EndTime)
	if err != nil {
		return nil, err
	}
	techID, err := parseOptionalUUID(input.TechnicianID)
	if err != nil {
		return nil, err
	}
	jobID, err := parseOptionalUUID(input.JobID)
	if err != nil {
		return nil, err
	}

	block, err := t.app.CreateBlockHandler.Handle(ctx, commands.CreateBlockCommand{
		OrganizationID: orgID,
		TechnicianID:   techID,
		JobID:          jobID,
		Title:          input.Title,
		ClientName:     optionalString(input.ClientName),
		Location:       optionalString(input.Location),
		StartTime:      start,
		EndTime:        end,
		Status:         strings.ToLower(input.Status),
		TravelMinutes:  input.TravelMinutes,
		Notes:          optionalString(input.Notes),
		Metadata:       input.Metadata,
	})
	if err != nil {
		return nil, err
	}
	dto := queries.ToBlockDTO(block)
	return &dto, nil
}

func (t *scheduleTools) updateBlock(ctx context.Context, input scheduleUpdateBlockInput) (*queries.BlockDTO, error) {
	if t.app == nil || t.app.UpdateBlockHandler == nil {
		return nil, errNoDatabase
	}
	blockID, err := parseUUID(input.BlockID)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]json.RawMessage, len(input.Fields))
	for key, value := range input.Fields {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		raw[key] = encoded
	}
	patch, err := commands.BlockPatchFromFields(raw)
	if err != nil {
		return nil, err
	}

	block, err := t.app.UpdateBlockHandler.Handle(ctx, commands.UpdateBlockCommand{BlockID: blockID, Patch: patch})
	if err != nil {
		return nil, err
	}
	dto := queries.ToBlockDTO(block)
	return &dto, nil
}

func (t *scheduleTools) moveBlock(ctx context.Context, input scheduleMoveBlockInput) (*moveBlockOutput, error) {
	if t.app == nil || t.app.MoveBlockHandler == nil {
		return nil, errNoDatabase
	}
	blockID, err := parseUUID(input.BlockID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(input.Date, t.now())
	if err != nil {
		return nil, err
	}
	start, err := parseInstant("start_time", date, input.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseInstant("end_time", date, input.EndTime)
	if err != nil {
		return nil, err
	}
	techID, err := parseOptionalUUID(input.TechnicianID)
	if err != nil {
		return nil, err
	}

	result, err := t.app.MoveBlockHandler.Handle(ctx, commands.MoveBlockCommand{
		BlockID:      blockID,
		TechnicianID: techID,
		StartTime:    start,
		EndTime:      end,
	})
	if err != nil {
		return nil, err
	}
	return &moveBlockOutput{
		Success:         result.Success,
		Conflict:        result.Conflict,
		BlockID:         result.BlockID.String(),
		Tier:            string(result.Tier),
		ConflictChecked: result.ConflictChecked,
	}, nil
}

func (t *scheduleTools) resizeBlock(ctx context.Context, input scheduleResizeBlockInput) (*queries.BlockDTO, error) {
	if t.app == nil || t.app.ResizeBlockHandler == nil {
		return nil, errNoDatabase
	}
	blockID, err := parseUUID(input.BlockID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(input.Date, t.now())
	if err != nil {
		return nil, err
	}
	end, err := parseInstant("end_time", date, input.EndTime)
	if err != nil {
		return nil, err
	}

	block, err := t.app.ResizeBlockHandler.Handle(ctx, commands.ResizeBlockCommand{BlockID: blockID, EndTime: end})
	if err != nil {
		return nil, err
	}
	dto := queries.ToBlockDTO(block)
	return &dto, nil
}

func (t *scheduleTools) assignJob(ctx context.Context, input scheduleAssignJobInput) (*assignJobOutput, error) {
	if t.app == nil || t.app.AssignJobHandler == nil {
		return nil, errNoDatabase
	}
	orgID, err := organizationID(t.app, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	jobID, err := parseUUID(input.JobID)
	if err != nil {
		return nil, err
	}
	techID, err := parseUUID(input.TechnicianID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(input.Date, t.now())
	if err != nil {
		return nil, err
	}
	start, err := parseInstant("start_time", date, input.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := parseInstant("end_time", date, input.EndTime)
	if err != nil {
		return nil, err
	}

	result, err := t.app.AssignJobHandler.Handle(ctx, commands.AssignJobCommand{
		OrganizationID: orgID,
		JobID:          jobID,
		TechnicianID:   techID,
		StartTime:      start,
		EndTime:        end,
	})
	if err != nil {
		return nil, err
	}
	return &assignJobOutput{
		Block:    queries.ToBlockDTO(result.Block),
		JobID:    result.JobID.String(),
		Conflict: result.Conflict,
	}, nil
}

func (t *scheduleTools) deleteBlock(ctx context.Context, input scheduleDeleteBlockInput) (map[string]any, error) {
	if t.app == nil || t.app.DeleteBlockHandler == nil {
		return nil, errNoDatabase
	}
	blockID, err := parseUUID(input.BlockID)
	if err != nil {
		return nil, err
	}
	if err := t.app.DeleteBlockHandler.Handle(ctx, commands.DeleteBlockCommand{BlockID: blockID}); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": true, "block_id": blockID.String()}, nil
}

func (t *scheduleTools) backlog(ctx context.Context, input scheduleOrgInput) ([]queries.BacklogJobDTO, error) {
	if t.app == nil || t.app.ListBacklogHandler == nil {
		return nil, errNoDatabase
	}
	orgID, err := organizationID(t.app, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	return t.app.ListBacklogHandler.Handle(ctx, queries.ListBacklogQuery{OrganizationID: orgID})
}

func (t *scheduleTools) conflicts(ctx context.Context, input scheduleOrgInput) ([]queries.BlockDTO, error) {
	if t.app == nil || t.app.CheckConflictsHandler == nil {
		return nil, errNoDatabase
	}
	orgID, err := organizationID(t.app, input.OrganizationID)
	if err != nil {
		return nil, err
	}
	return t.app.CheckConflictsHandler.Handle(ctx, queries.CheckConflictsQuery{OrganizationID: orgID}), nil
}
