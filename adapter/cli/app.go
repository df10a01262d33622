package cli

import (
	"fmt"

	"github.com/google/uuid"

	internalApp "github.com/iworkr/iworkr-stack-sub004/internal/app"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/commands"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/application/queries"
	"github.com/iworkr/iworkr-stack-sub004/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
	// Block Command Handlers
	CreateBlockHandler *commands.CreateBlockHandler
	UpdateBlockHandler *commands.UpdateBlockHandler
	DeleteBlockHandler *commands.DeleteBlockHandler
	MoveBlockHandler   *commands.MoveBlockHandler
	ResizeBlockHandler *commands.ResizeBlockHandler
	AssignJobHandler   *commands.AssignJobHandler

	// Event Command Handlers
	CreateEventHandler *commands.CreateEventHandler
	DeleteEventHandler *commands.DeleteEventHandler

	// Query Handlers
	ListBlocksHandler     *queries.ListBlocksHandler
	ListBacklogHandler    *queries.ListBacklogHandler
	ListEventsHandler     *queries.ListEventsHandler
	GetDayViewHandler     *queries.GetDayViewHandler
	CheckConflictsHandler *queries.CheckConflictsHandler

	Health *observability.HealthRegistry

	// Container is set when the app was built from a live container. The
	// serve and migrate commands need it.
	Container *internalApp.Container

	// OrganizationID is the default organization for commands that do not
	// pass --org.
	OrganizationID uuid.UUID
}

// NewApp creates a new CLI application backed by the container.
func NewApp(container *internalApp.Container) *App {
	return &App{
		CreateBlockHandler:    container.CreateBlockHandler,
		UpdateBlockHandler:    container.UpdateBlockHandler,
		DeleteBlockHandler:    container.DeleteBlockHandler,
		MoveBlockHandler:      container.MoveBlockHandler,
		ResizeBlockHandler:    container.ResizeBlockHandler,
		AssignJobHandler:      container.AssignJobHandler,
		CreateEventHandler:    container.CreateEventHandler,
		DeleteEventHandler:    container.DeleteEventHandler,
		ListBlocksHandler:     container.ListBlocksHandler,
		ListBacklogHandler:    container.ListBacklogHandler,
		ListEventsHandler:     container.ListEventsHandler,
		GetDayViewHandler:     container.GetDayViewHandler,
		CheckConflictsHandler: container.CheckConflictsHandler,
		Health:                container.Health,
		Container:             container,
		OrganizationID:        container.DefaultOrganizationID(),
	}
}

// SetOrganizationID overrides the default organization.
func (a *App) SetOrganizationID(id uuid.UUID) {
	a.OrganizationID = id
}

// ResolveOrganization returns the organization named by flag, or the
// default when flag is empty.
func (a *App) ResolveOrganization(flag string) (uuid.UUID, error) {
	if flag != "" {
		id, err := uuid.Parse(flag)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid organization id: %w", err)
		}
		return id, nil
	}
	if a.OrganizationID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("organization is required: pass --org or set IWORKR_ORGANIZATION_ID")
	}
	return a.OrganizationID, nil
}

// Global app instance (set by main)
var globalApp *App

// SetApp sets the global app instance.
func SetApp(app *App) {
	globalApp = app
}

// GetApp returns the global app instance.
func GetApp() *App {
	return globalApp
}
