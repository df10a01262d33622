package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database"
	"github.com/iworkr/iworkr-stack-sub004/internal/shared/infrastructure/database/sqlite"
)

func TestUp_SQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{
		SQLitePath: filepath.Join(t.TempDir(), "schedule.db"),
	})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Up(ctx, conn, nil))
	// Re-running is a no-op.
	require.NoError(t, Up(ctx, conn, nil))

	version, err := Version(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	for _, table := range []string{"schedule_blocks", "schedule_events", "jobs", "clients", "profiles", "organization_members", "outbox"} {
		var name string
		err := conn.QueryRow(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}
