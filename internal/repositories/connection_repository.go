package repositories

import (
	"context"
	"database/sql"
	"errors"

	"grognon/internal/apperrors"
	"grognon/internal/models"
)

const connectionColumns = `connection_id, db_type, connection_url, created_at, deleted_at, connected, last_connected_at, last_error`

type ConnectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConnection(row rowScanner) (*models.Connection, error) {
	var con models.Connection
	err := row.Scan(
		&con.ConnectionId,
		&con.DbType,
		&con.ConnectionUrl,
		&con.CreatedAt,
		&con.DeletedAt,
		&con.Connected,
		&con.LastConnectedAt,
		&con.LastError,
	)
	if err != nil {
		return nil, err
	}
	return &con, nil
}

func (r *ConnectionRepository) Create(ctx context.Context, input models.ConnectionCreate) (*models.Connection, error) {
	query := `
		INSERT INTO connections (db_type, connection_url, created_at)
		VALUES (?, ?, ?)
		RETURNING ` + connectionColumns

	con, err := scanConnection(r.db.QueryRowContext(ctx, query, input.DbType, input.ConnectionUrl, models.Now()))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to create connection")
	}
	return con, nil
}

// GetByID returns a non-deleted connection.
func (r *ConnectionRepository) GetByID(ctx context.Context, id int64) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE connection_id = ? AND deleted_at IS NULL`

	con, err := scanConnection(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("connection", id)
		}
		return nil, apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to get connection %d", id)
	}
	return con, nil
}

// List returns every non-deleted connection.
func (r *ConnectionRepository) List(ctx context.Context) ([]models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE deleted_at IS NULL ORDER BY connection_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to list connections")
	}
	defer rows.Close()

	connections := []models.Connection{}
	for rows.Next() {
		con, err := scanConnection(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to scan connection")
		}
		connections = append(connections, *con)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to list connections")
	}
	return connections, nil
}

func (r *ConnectionRepository) MarkConnected(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE connections SET connected = 1, last_error = NULL, last_connected_at = ? WHERE connection_id = ?",
		models.Now(), id,
	)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to mark connection %d connected", id)
	}
	return nil
}

func (r *ConnectionRepository) MarkDisconnected(ctx context.Context, id int64, cause error) error {
	var lastError *string
	if cause != nil {
		msg := cause.Error()
		lastError = &msg
	}

	_, err := r.db.ExecContext(ctx,
		"UPDATE connections SET connected = 0, last_error = ? WHERE connection_id = ?",
		lastError, id,
	)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to mark connection %d disconnected", id)
	}
	return nil
}

// SoftDelete flags the connection as removed; its schema cache and crons are kept.
func (r *ConnectionRepository) SoftDelete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE connections SET connected = 0, last_error = 'Connection removed', deleted_at = ? WHERE connection_id = ? AND deleted_at IS NULL",
		models.Now(), id,
	)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to delete connection %d", id)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to delete connection %d", id)
	}
	if n == 0 {
		return apperrors.NotFound("connection", id)
	}
	return nil
}
