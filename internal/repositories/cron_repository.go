package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"grognon/internal/apperrors"
	"grognon/internal/models"
	"grognon/internal/utils"
)

const (
	cronColumns = `cron_id, connection_id, name, command, schedule, created_at, deleted_at, last_run_at`

	// TimestampColumn is the first column of every cron data table. Outputs cannot use it.
	TimestampColumn = "timestamp"

	// keeps each multi-row INSERT under SQLite's bound parameter limit
	maxInsertParams = 999
)

type CronRepository struct {
	db *sql.DB
}

func NewCronRepository(db *sql.DB) *CronRepository {
	return &CronRepository{db: db}
}

func scanCron(row rowScanner) (*models.Cron, error) {
	var cron models.Cron
	err := row.Scan(
		&cron.CronId,
		&cron.ConnectionId,
		&cron.Name,
		&cron.Command,
		&cron.Schedule,
		&cron.CreatedAt,
		&cron.DeletedAt,
		&cron.LastRunAt,
	)
	if err != nil {
		return nil, err
	}
	return &cron, nil
}

func (r *CronRepository) Create(ctx context.Context, input models.CronCreate) (*models.Cron, error) {
	query := `
		INSERT INTO crons (connection_id, name, command, schedule, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING ` + cronColumns

	cron, err := scanCron(r.db.QueryRowContext(ctx, query,
		input.ConnectionId,
		input.Name,
		input.Command,
		input.Schedule,
		models.Now(),
	))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to create cron")
	}
	return cron, nil
}

// GetByID returns a non-deleted cron.
func (r *CronRepository) GetByID(ctx context.Context, id int64) (*models.Cron, error) {
	query := `SELECT ` + cronColumns + ` FROM crons WHERE cron_id = ? AND deleted_at IS NULL`

	cron, err := scanCron(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("cron", id)
		}
		return nil, apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to get cron %d", id)
	}
	return cron, nil
}

// List returns non-deleted crons, optionally only those of one connection.
func (r *CronRepository) List(ctx context.Context, connectionId *int64) ([]models.Cron, error) {
	query := `SELECT ` + cronColumns + ` FROM crons WHERE deleted_at IS NULL`
	var args []interface{}

	if connectionId != nil {
		query += " AND connection_id = ?"
		args = append(args, *connectionId)
	}
	query += " ORDER BY cron_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to list crons")
	}
	defer rows.Close()

	crons := []models.Cron{}
	for rows.Next() {
		cron, err := scanCron(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to scan cron")
		}
		crons = append(crons, *cron)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to list crons")
	}
	return crons, nil
}

func (r *CronRepository) Update(ctx context.Context, cron models.Cron) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE crons SET name = ?, command = ?, schedule = ? WHERE cron_id = ? AND deleted_at IS NULL",
		cron.Name, cron.Command, cron.Schedule, cron.CronId,
	)
	return checkAffected(res, err, "cron", cron.CronId, "failed to update cron")
}

func (r *CronRepository) SoftDelete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE crons SET deleted_at = ? WHERE cron_id = ? AND deleted_at IS NULL",
		models.Now(), id,
	)
	return checkAffected(res, err, "cron", id, "failed to delete cron")
}

func (r *CronRepository) SetLastRun(ctx context.Context, id int64, at models.EpochTime) error {
	res, err := r.db.ExecContext(ctx, "UPDATE crons SET last_run_at = ? WHERE cron_id = ?", at, id)
	return checkAffected(res, err, "cron", id, "failed to update cron last run")
}

// Delete removes a cron row, its outputs and its data table.
func (r *CronRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+utils.QuoteIdent(models.CronTableName(id))); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to drop data table of cron %d", id)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM crons WHERE cron_id = ?", id); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to remove cron %d", id)
	}
	return nil
}

// Outputs returns the cron's columns in the order its command produces them.
func (r *CronRepository) Outputs(ctx context.Context, cronId int64) ([]models.CronOutput, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT cron_id, name, type FROM cron_outputs WHERE cron_id = ? ORDER BY position",
		cronId,
	)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to get outputs of cron %d", cronId)
	}
	defer rows.Close()

	outputs := []models.CronOutput{}
	for rows.Next() {
		var output models.CronOutput
		if err := rows.Scan(&output.CronId, &output.Name, &output.Type); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to scan cron output")
		}
		outputs = append(outputs, output)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to get cron outputs")
	}
	return outputs, nil
}

func (r *CronRepository) SaveOutputs(ctx context.Context, cronId int64, outputs []models.CronOutput) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, output := range outputs {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO cron_outputs (cron_id, position, name, type) VALUES (?, ?, ?, ?)",
			cronId, i, output.Name, output.Type,
		); err != nil {
			return apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to save output %s", output.Name)
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to commit cron outputs")
	}
	return nil
}

// CreateDataTable creates cron_<id> with a timestamp column followed by one column per output.
func (r *CronRepository) CreateDataTable(ctx context.Context, cronId int64, outputs []models.CronOutput) error {
	table := models.CronTableName(cronId)

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (%s INTEGER NOT NULL", utils.QuoteIdent(table), TimestampColumn)
	for _, output := range outputs {
		fmt.Fprintf(&b, ", %s %s", utils.QuoteIdent(output.Name), output.Type)
	}
	b.WriteString(")")

	indexQuery := fmt.Sprintf("CREATE INDEX %s ON %s(%s)",
		utils.QuoteIdent(table+"_"+TimestampColumn), utils.QuoteIdent(table), TimestampColumn)

	if _, err := r.db.ExecContext(ctx, b.String()); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to create table %s", table)
	}
	if _, err := r.db.ExecContext(ctx, indexQuery); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to index table %s", table)
	}
	return nil
}

// InsertData appends rows to the cron's data table, all stamped with at.
func (r *CronRepository) InsertData(ctx context.Context, cronId int64, at models.EpochTime, columns []string, objects []models.Object) (err error) {
	if len(objects) == 0 {
		return nil
	}

	table := models.CronTableName(cronId)
	quoted := make([]string, 0, len(columns)+1)
	quoted = append(quoted, TimestampColumn)
	for _, col := range columns {
		quoted = append(quoted, utils.QuoteIdent(col))
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", utils.QuoteIdent(table), strings.Join(quoted, ", "))
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(quoted)), ", ") + ")"

	batch := maxInsertParams / len(quoted)
	if batch < 1 {
		batch = 1
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for start := 0; start < len(objects); start += batch {
		end := start + batch
		if end > len(objects) {
			end = len(objects)
		}

		tuples := make([]string, 0, end-start)
		params := make([]interface{}, 0, (end-start)*len(quoted))
		for _, object := range objects[start:end] {
			tuples = append(tuples, tuple)
			params = append(params, at)
			for _, col := range columns {
				params = append(params, object[col])
			}
		}

		if _, err = tx.ExecContext(ctx, prefix+strings.Join(tuples, ", "), params...); err != nil {
			return apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to insert into %s", table)
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to commit cron data")
	}
	return nil
}

// Data returns the collected rows of a cron, newest first. The timestamp is unix seconds.
func (r *CronRepository) Data(ctx context.Context, cronId int64) ([]models.Object, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY timestamp DESC", utils.QuoteIdent(models.CronTableName(cronId)))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to get data of cron %d", cronId)
	}
	defer rows.Close()

	objects, _, err := ScanObjects(rows)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to read data of cron %d", cronId)
	}
	if objects == nil {
		objects = []models.Object{}
	}
	return objects, nil
}

func checkAffected(res sql.Result, err error, what string, id int64, message string) error {
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeDatabase, message)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeDatabase, message)
	}
	if n == 0 {
		return apperrors.NotFound(what, id)
	}
	return nil
}
