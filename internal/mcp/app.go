package mcp

import (
	"github.com/google/uuid"

	"github.com/iworkr/iworkr-stack-sub004/adapter/cli"
	"github.com/iworkr/iworkr-stack-sub004/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided
// container. A non-nil organization overrides the configured default.
func NewCLIApp(container *app.Container, organizationID uuid.UUID) *cli.App {
	cliApp := cli.NewApp(container)
	if organizationID != uuid.Nil {
		cliApp.SetOrganizationID(organizationID)
	}
	return cliApp
}
