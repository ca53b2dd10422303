package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MigratesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := Open(ctx, dir)
	require.NoError(t, err)

	version, err := db.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	for _, table := range []string{"connections", "tables", "columns", "foreign_keys", "crons", "cron_outputs", "query_history"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_schema WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
	}
	require.NoError(t, db.Close())

	again, err := Open(ctx, dir)
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, filepath.Join(dir, FileName), again.Path)
}

func TestOpen_ForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, "INSERT INTO crons (connection_id, name, command, schedule, created_at) VALUES (42, 'n', 'SELECT 1', 'hour', 0)")
	assert.Error(t, err)
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "target.db")

	_, err := OpenSQLite(ctx, path)
	assert.Error(t, err, "missing file must not be created")

	seed, err := sql.Open(DriverName, "file:"+path)
	require.NoError(t, err)
	_, err = seed.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	target, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer target.Close()

	var n int
	require.NoError(t, target.QueryRowContext(ctx, "SELECT count(*) FROM t").Scan(&n))
	assert.Equal(t, 0, n)

	_, err = OpenSQLite(ctx, "  ")
	assert.Error(t, err)
}
