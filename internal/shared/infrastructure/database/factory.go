package database

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
)

// Config holds database configuration.
type Config struct {
	// Driver selects the backend. Empty or "auto" detects it from URL.
	Driver Driver

	// URL is the PostgreSQL connection string.
	URL string

	// SQLitePath is the database file used in local mode. Defaults to ~/.iworkr/schedule.db.
	SQLitePath string

	// MaxConns caps the PostgreSQL pool size.
	MaxConns int
}

// Opener creates a connection for a driver. Driver packages register
// themselves from init so this package stays free of driver imports.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var openers = map[Driver]Opener{}

// RegisterDriver registers the connection factory for a driver.
func RegisterDriver(driver Driver, open Opener) {
	openers[driver] = open
}

// NewConnection creates a database connection based on configuration.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.Driver
	if driver == "" || driver == "auto" {
		driver = DetectDriver(cfg.URL)
	}

	open, ok := openers[driver]
	if !ok {
		return nil, errors.Errorf("unsupported database driver: %s (is the driver package imported?)", driver)
	}
	return open(ctx, cfg)
}

// DefaultSQLitePath returns the default local database path.
func DefaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".iworkr", "schedule.db")
}

// EnsureDirectory creates the parent directory for a file path.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
