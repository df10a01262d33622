package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common dispatch workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("dispatch_planning").
		Description("Plan the day's dispatch board: place backlog jobs onto technicians without double booking.").
		Argument("date", "Day to plan (YYYY-MM-DD, default today)", false).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			day := args["date"]
			if day == "" {
				day = "today"
			}
			return &mcp.PromptResult{
				Description: "Dispatch Planning Session",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Help me plan the dispatch board for %s. Please:

1. Load the board with the schedule.day_view tool
2. Review unscheduled work with the schedule.backlog tool
3. Check existing double bookings with the schedule.conflicts tool

Then:
- Propose a technician and time slot for the highest priority backlog jobs
- Keep each technician's blocks from overlapping, allowing for travel minutes
- Avoid the technicians' personal events

Apply the plan with schedule.assign_job and report any assignment that came back flagged as a conflict.`, day),
						},
					},
				},
			}, nil
		})

	srv.Prompt("resolve_conflicts").
		Description("Walk through flagged double bookings and move blocks until none remain.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Conflict Resolution Session",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `List flagged blocks with schedule.conflicts. For each one, look at that
technician's day with schedule.day_view and suggest a move, a resize or a
different technician. Apply agreed changes with schedule.move_block or
schedule.resize_block, then run schedule.conflicts again to confirm.`,
						},
					},
				},
			}, nil
		})

	return nil
}
