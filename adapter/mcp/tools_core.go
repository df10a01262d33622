package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/iworkr/iworkr-stack-sub004/adapter/cli"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("cli.health").
		Description("Check database and cache connectivity").
		Handler(func(ctx context.Context, input struct{}) (*observability.OverallHealth, error) {
			if app == nil || app.Health == nil {
				return nil, errors.New("app not initialized")
			}
			health := app.Health.Check(ctx)
			return &health, nil
		})

	srv.Tool("cli.version").
		Description("Get CLI version information").
		Handler(func(ctx context.Context, input struct{}) (map[string]string, error) {
			return map[string]string{
				"version":   cli.Version,
				"commit":    cli.Commit,
				"buildDate": cli.BuildDate,
			}, nil
		})

	return nil
}
