package api

import (
	"github.com/iworkr/iworkr-stack-sub004/internal/app"
	"github.com/iworkr/iworkr-stack-sub004/internal/identity"
)

// NewServerFromContainer builds the HTTP server for a wired container. A
// configured JWT secret turns on bearer token authentication.
func NewServerFromContainer(c *app.Container) *Server {
	cfg := DefaultServerConfig()
	if c.Config != nil {
		if c.Config.HTTPAddr != "" {
			cfg.Addr = c.Config.HTTPAddr
		}
		if len(c.Config.CORSAllowedOrigins) > 0 {
			cfg.AllowedOrigins = c.Config.CORSAllowedOrigins
		}
		if c.Config.JWTSecret != "" {
			cfg.Verifier = identity.NewTokenVerifier(c.Config.JWTSecret)
		}
	}
	cfg.Health = c.Health
	if c.MetricsRegistry != nil {
		cfg.Metrics = c.MetricsRegistry
	}

	handler := NewScheduleHandler(ScheduleHandlerConfig{
		CreateBlock:    c.CreateBlockHandler,
		UpdateBlock:    c.UpdateBlockHandler,
		DeleteBlock:    c.DeleteBlockHandler,
		MoveBlock:      c.MoveBlockHandler,
		ResizeBlock:    c.ResizeBlockHandler,
		AssignJob:      c.AssignJobHandler,
		CreateEvent:    c.CreateEventHandler,
		DeleteEvent:    c.DeleteEventHandler,
		ListBlocks:     c.ListBlocksHandler,
		ListBacklog:    c.ListBacklogHandler,
		ListEvents:     c.ListEventsHandler,
		GetDayView:     c.GetDayViewHandler,
		CheckConflicts: c.CheckConflictsHandler,
		Logger:         c.Logger,
	})
	return NewServer(cfg, handler, c.Logger)
}
