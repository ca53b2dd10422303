package repositories

import (
	"context"
	"database/sql"

	"grognon/internal/apperrors"
	"grognon/internal/models"
)

const defaultHistoryLimit = 100

type QueryHistoryRepository struct {
	db *sql.DB
}

func NewQueryHistoryRepository(db *sql.DB) *QueryHistoryRepository {
	return &QueryHistoryRepository{db: db}
}

func (r *QueryHistoryRepository) Create(ctx context.Context, queryHistory *models.QueryHistory) error {
	queryHistory.Prepare()

	query := `
		INSERT INTO query_history (connection_id, query_text, executed_at, success, execution_time_ms, error)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		queryHistory.ConnectionId,
		queryHistory.QueryText,
		queryHistory.ExecutedAt,
		queryHistory.Success,
		queryHistory.ExecutionTimeMs,
		queryHistory.Error,
	).Scan(&queryHistory.ID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to record query")
	}
	return nil
}

// GetByConnectionID returns the latest queries run against a connection.
func (r *QueryHistoryRepository) GetByConnectionID(ctx context.Context, connectionId int64, limit int) ([]models.QueryHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `
		SELECT id, connection_id, query_text, executed_at, success, execution_time_ms, error
		FROM query_history WHERE connection_id = ?
		ORDER BY executed_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, connectionId, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to get query history")
	}
	defer rows.Close()

	queries := []models.QueryHistory{}
	for rows.Next() {
		var qh models.QueryHistory
		err := rows.Scan(
			&qh.ID,
			&qh.ConnectionId,
			&qh.QueryText,
			&qh.ExecutedAt,
			&qh.Success,
			&qh.ExecutionTimeMs,
			&qh.Error,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to scan query history")
		}
		queries = append(queries, qh)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to get query history")
	}
	return queries, nil
}
