// Package migrations holds the embedded schema for both database drivers
// and applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log/slog"

	"github.com/go-faster/errors"
	"github.com/pressly/goose/v3"

	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var embedded embed.FS

// DBProvider is implemented by connections that can expose a database/sql handle.
type DBProvider interface {
	DB() *sql.DB
}

// Up applies all pending migrations for the connection's driver.
func Up(ctx context.Context, conn database.Connection, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	provider, ok := conn.(DBProvider)
	if !ok {
		return errors.Errorf("connection for %s does not expose *sql.DB", conn.Driver())
	}

	p, err := newProvider(conn.Driver(), provider.DB())
	if err != nil {
		return err
	}

	results, err := p.Up(ctx)
	if err != nil {
		return errors.Wrap(err, "apply migrations")
	}
	for _, r := range results {
		logger.Info("migration applied",
			"driver", conn.Driver(),
			"version", r.Source.Version,
			"duration", r.Duration,
		)
	}
	return nil
}

// Version returns the currently applied schema version.
func Version(ctx context.Context, conn database.Connection) (int64, error) {
	provider, ok := conn.(DBProvider)
	if !ok {
		return 0, errors.Errorf("connection for %s does not expose *sql.DB", conn.Driver())
	}
	p, err := newProvider(conn.Driver(), provider.DB())
	if err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}

func newProvider(driver database.Driver, db *sql.DB) (*goose.Provider, error) {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch driver {
	case database.DriverSQLite:
		dialect, dir = goose.DialectSQLite3, "sqlite"
	case database.DriverPostgres:
		dialect, dir = goose.DialectPostgres, "postgres"
	default:
		return nil, errors.Errorf("no migrations for driver %q", driver)
	}

	fsys, err := fs.Sub(embedded, dir)
	if err != nil {
		return nil, errors.Wrap(err, "open embedded migrations")
	}

	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, errors.Wrap(err, "create migration provider")
	}
	return p, nil
}
