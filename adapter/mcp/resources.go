package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers MCP resources that expose the default
// organization's dispatch data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	t := newScheduleTools(deps.App)

	srv.Resource("iworkr://schedule/today").
		Name("Today's dispatch board").
		Description("Technicians, blocks, events and backlog for today (UTC)").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			view, err := t.dayView(ctx, scheduleDayInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, view)
		})

	srv.Resource("iworkr://schedule/conflicts").
		Name("Double bookings").
		Description("Blocks currently flagged as conflicting").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			blocks, err := t.conflicts(ctx, scheduleOrgInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, blocks)
		})

	srv.Resource("iworkr://backlog").
		Name("Job backlog").
		Description("Jobs waiting to be scheduled, oldest first").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			jobs, err := t.backlog(ctx, scheduleOrgInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, jobs)
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
