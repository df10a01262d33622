package app

import (
	"github.com/go-faster/errors"

	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/domain"
	"github.com/iworkr/iworkr-stack-sub004/internal/scheduling/infrastructure/persistence"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/outbox"
)

// Repositories bundles the storage collaborators of the scheduling context.
type Repositories struct {
	Blocks      domain.BlockRepository
	Events      domain.EventRepository
	Backlog     domain.BacklogRepository
	Technicians domain.TechnicianDirectory
	Procedures  domain.ScheduleProcedures
	Outbox      outbox.Repository
}

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// Build creates every repository for the configured driver.
func (f *RepositoryFactory) Build() (*Repositories, error) {
	switch f.driver {
	case database.DriverPostgres:
		return &Repositories{
			Blocks:      persistence.NewPostgresBlockRepository(f.conn),
			Events:      persistence.NewPostgresEventRepository(f.conn),
			Backlog:     persistence.NewPostgresBacklogRepository(f.conn),
			Technicians: persistence.NewPostgresTechnicianDirectory(f.conn),
			Procedures:  persistence.NewPostgresScheduleProcedures(f.conn),
			Outbox:      outbox.NewPostgresRepository(f.conn),
		}, nil

	case database.DriverSQLite:
		return &Repositories{
			Blocks:      persistence.NewSQLiteBlockRepository(f.conn),
			Events:      persistence.NewSQLiteEventRepository(f.conn),
			Backlog:     persistence.NewSQLiteBacklogRepository(f.conn),
			Technicians: persistence.NewSQLiteTechnicianDirectory(f.conn),
			Procedures:  persistence.NewSQLiteScheduleProcedures(f.conn),
			Outbox:      outbox.NewSQLiteRepository(f.conn),
		}, nil

	default:
		return nil, errors.Errorf("unsupported driver: %s", f.driver)
	}
}

// Driver returns the database driver being used.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}
