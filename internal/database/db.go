package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	DriverName = "sqlite"
	FileName   = "grognon.db"
)

// Database is the application state store.
type Database struct {
	*sql.DB
	Path string
}

// Open opens (creating if needed) the state database in dataDir and migrates it.
func Open(ctx context.Context, dataDir string) (*Database, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dataDir, err)
	}

	path := filepath.Join(dataDir, FileName)
	slog.Info("Opening database", slog.String("path", path))

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqldb, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqldb.PingContext(pingCtx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", path, err)
	}

	db := &Database{DB: sqldb, Path: path}

	slog.Info("Checking for migrations")
	if err := db.Migrate(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("Database migrated")

	return db, nil
}

// OpenSQLite opens a user-registered SQLite file read-write. The file must already exist.
func OpenSQLite(ctx context.Context, url string) (*sql.DB, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("empty sqlite path")
	}

	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	dsn := "file:" + strings.TrimPrefix(url, "file:") + sep + "mode=rw&_pragma=busy_timeout(5000)"

	sqldb, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", url, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqldb.PingContext(pingCtx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to ping sqlite database %s: %w", url, err)
	}
	return sqldb, nil
}

func (db *Database) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	slog.Info("Database closed", slog.String("path", db.Path))
	return db.DB.Close()
}
