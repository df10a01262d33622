package mcp

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/iworkr/iworkr-stack-sub004/adapter/cli"
	mcpinternal "github.com/iworkr/iworkr-stack-sub004/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on MCP_ADDR",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Container == nil {
			return errors.New("app not initialized")
		}
		container := app.Container

		err := mcpinternal.Serve(cmd.Context(), container.Config, app, container.Logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
