package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"grognon/internal/apperrors"
	"grognon/internal/models"
	"grognon/internal/repositories"
)

const (
	DefaultPreviewLimit = 100
	MaxPreviewLimit     = 1000
)

var (
	commentPattern   = regexp.MustCompile(`--[^\n]*|/\*[\s\S]*?\*/`)
	literalPattern   = regexp.MustCompile(`'(?:[^']|'')*'`)
	deletePattern    = regexp.MustCompile(`\bDELETE\s+FROM\b`)
	wherePattern     = regexp.MustCompile(`\bWHERE\b`)
	returningPattern = regexp.MustCompile(`\bRETURNING\b`)
	rowsPrefixes     = []string{"SELECT", "WITH", "VALUES", "PRAGMA", "EXPLAIN"}

	dangerousOperations = []struct {
		keyword string
		pattern *regexp.Regexp
	}{
		{"DROP", regexp.MustCompile(`\bDROP\b`)},
		{"TRUNCATE", regexp.MustCompile(`\bTRUNCATE\b`)},
		{"ATTACH", regexp.MustCompile(`\bATTACH\b`)},
		{"DETACH", regexp.MustCompile(`\bDETACH\b`)},
		{"VACUUM INTO", regexp.MustCompile(`\bVACUUM\s+INTO\b`)},
	}
)

type QueryService struct {
	connections *ConnectionService
	historyRepo *repositories.QueryHistoryRepository
	timeout     time.Duration
}

func NewQueryService(connections *ConnectionService, historyRepo *repositories.QueryHistoryRepository, timeout time.Duration) *QueryService {
	return &QueryService{
		connections: connections,
		historyRepo: historyRepo,
		timeout:     timeout,
	}
}

type QueryResult struct {
	Columns       []string                 `json:"columns"`
	Rows          []map[string]interface{} `json:"rows"`
	RowCount      int                      `json:"row_count"`
	RowsAffected  int64                    `json:"rows_affected,omitempty"`
	Truncated     bool                     `json:"truncated,omitempty"`
	ExecutionTime int64                    `json:"execution_time_ms"`
}

type ExecuteQueryRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

func normalizeQuery(query string) string {
	normalized := commentPattern.ReplaceAllString(query, " ")
	normalized = literalPattern.ReplaceAllString(normalized, "''")
	return strings.ToUpper(strings.TrimSpace(normalized))
}

// ValidateSQLQuery rejects empty input, multiple statements and destructive operations.
func ValidateSQLQuery(query string) error {
	normalized := normalizeQuery(query)
	if normalized == "" {
		return errors.New("query cannot be empty")
	}

	// a single trailing semicolon is allowed
	nonEmptyParts := 0
	for _, part := range strings.Split(normalized, ";") {
		if strings.TrimSpace(part) != "" {
			nonEmptyParts++
		}
	}
	if nonEmptyParts == 0 {
		return errors.New("query cannot be empty")
	}
	if nonEmptyParts > 1 {
		return errors.New("multiple statements are not allowed")
	}

	for _, op := range dangerousOperations {
		if op.pattern.MatchString(normalized) {
			return fmt.Errorf("operation '%s' is not allowed", op.keyword)
		}
	}

	if deletePattern.MatchString(normalized) && !wherePattern.MatchString(normalized) {
		return errors.New("DELETE statements must include a WHERE clause")
	}

	return nil
}

func returnsRows(query string) bool {
	normalized := normalizeQuery(query)
	for _, prefix := range rowsPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return returningPattern.MatchString(normalized)
}

// Preview runs a validated query against a connection and records it in the history.
func (s *QueryService) Preview(ctx context.Context, connectionId int64, req ExecuteQueryRequest) (*QueryResult, error) {
	db, err := s.connections.Handle(connectionId)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	entry := &models.QueryHistory{
		ConnectionId: connectionId,
		QueryText:    req.Query,
	}

	if err := ValidateSQLQuery(req.Query); err != nil {
		s.record(ctx, entry, startTime, err)
		return nil, apperrors.Validation("Query", err.Error())
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	if limit > MaxPreviewLimit {
		limit = MaxPreviewLimit
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result *QueryResult
	if returnsRows(req.Query) {
		result, err = executeSelectQuery(queryCtx, db, req.Query, limit)
	} else {
		result, err = executeNonSelectQuery(queryCtx, db, req.Query)
	}

	s.record(ctx, entry, startTime, err)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeValidation, "query failed").WithField("Query")
	}

	result.ExecutionTime = entry.ExecutionTimeMs
	return result, nil
}

func (s *QueryService) record(ctx context.Context, entry *models.QueryHistory, startTime time.Time, err error) {
	entry.ExecutionTimeMs = time.Since(startTime).Milliseconds()
	entry.Success = err == nil
	if err != nil {
		msg := err.Error()
		entry.Error = &msg
	}
	if err := s.historyRepo.Create(ctx, entry); err != nil {
		slog.Warn("Failed to record query", slog.Int64("connection_id", entry.ConnectionId), slog.Any("error", err))
	}
}

// History returns the latest previews run against a connection.
func (s *QueryService) History(ctx context.Context, connectionId int64, limit int) ([]models.QueryHistory, error) {
	return s.historyRepo.GetByConnectionID(ctx, connectionId, limit)
}

func executeSelectQuery(ctx context.Context, db *sql.DB, query string, limit int) (*QueryResult, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: columns, Rows: []map[string]interface{}{}}
	for rows.Next() {
		if len(result.Rows) == limit {
			result.Truncated = true
			break
		}

		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		rowMap := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case []byte:
				rowMap[col] = string(v)
			case time.Time:
				rowMap[col] = v.Format(time.RFC3339)
			default:
				rowMap[col] = v
			}
		}
		result.Rows = append(result.Rows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

func executeNonSelectQuery(ctx context.Context, db *sql.DB, query string) (*QueryResult, error) {
	res, err := db.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	return &QueryResult{
		Columns:      []string{},
		Rows:         []map[string]interface{}{},
		RowsAffected: rowsAffected,
	}, nil
}
