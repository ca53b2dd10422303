package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"grognon/internal/database"
	"grognon/internal/models"
	"grognon/internal/repositories"
)

const targetSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	score REAL DEFAULT 0
);
CREATE TABLE profiles (
	user_id INTEGER PRIMARY KEY REFERENCES users(id),
	bio TEXT
);
CREATE TABLE orders (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id),
	total REAL
);
CREATE TABLE tags (
	id INTEGER PRIMARY KEY,
	label TEXT
);
CREATE TABLE user_tags (
	user_id INTEGER REFERENCES users(id),
	tag_id INTEGER REFERENCES tags(id),
	PRIMARY KEY (user_id, tag_id)
);
INSERT INTO users (id, email, score) VALUES (1, 'a@example.com', 1.5), (2, 'b@example.com', 2.5), (3, 'c@example.com', 3.5);
INSERT INTO orders (id, user_id, total) VALUES (1, 1, 10.0), (2, 1, 20.0), (3, 2, 5.0);
`

type testEnv struct {
	db          *database.Database
	targetPath  string
	target      *sql.DB
	connections *ConnectionService
	reflection  *ReflectionService
	crons       *CronService
	queries     *QueryService
}

func newTarget(t *testing.T) (string, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "target.db")
	target, err := sql.Open(database.DriverName, "file:"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = target.Close() })

	_, err = target.Exec(targetSchema)
	require.NoError(t, err)
	return path, target
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	path, target := newTarget(t)

	reflection := NewReflectionService(repositories.NewSchemaRepository(db.DB))
	connections := NewConnectionService(repositories.NewConnectionRepository(db.DB), reflection)
	t.Cleanup(connections.Close)

	return &testEnv{
		db:          db,
		targetPath:  path,
		target:      target,
		connections: connections,
		reflection:  reflection,
		crons:       NewCronService(repositories.NewCronRepository(db.DB), connections, 5*time.Second),
		queries:     NewQueryService(connections, repositories.NewQueryHistoryRepository(db.DB), 5*time.Second),
	}
}

func (e *testEnv) connect(t *testing.T) *models.Connection {
	t.Helper()
	con, err := e.connections.Create(context.Background(), models.ConnectionCreate{
		ConnectionUrl: e.targetPath,
		DbType:        models.DbTypeSQLite,
	})
	require.NoError(t, err)
	return con
}
