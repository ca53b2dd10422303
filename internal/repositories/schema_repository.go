package repositories

import (
	"context"
	"database/sql"

	"grognon/internal/apperrors"
	"grognon/internal/models"
)

// SchemaRepository caches the reflected schema of each connection.
type SchemaRepository struct {
	db *sql.DB
}

func NewSchemaRepository(db *sql.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// ReplaceSchema swaps the cached schema of a connection in one transaction.
func (r *SchemaRepository) ReplaceSchema(ctx context.Context, connectionId int64, tables []models.Table) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		"DELETE FROM foreign_keys WHERE connection_id = ?",
		"DELETE FROM columns WHERE connection_id = ?",
		"DELETE FROM tables WHERE connection_id = ?",
	} {
		if _, err = tx.ExecContext(ctx, stmt, connectionId); err != nil {
			return apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to wipe schema of connection %d", connectionId)
		}
	}

	for _, table := range tables {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO tables (connection_id, table_name) VALUES (?, ?)",
			connectionId, table.Name,
		); err != nil {
			return apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to save table %s", table.Name)
		}

		for _, col := range table.Columns {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO columns (connection_id, table_name, name, type, "notnull", dflt_value, pk) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				connectionId, table.Name, col.Name, col.Type, col.Notnull, col.DfltValue, col.PK,
			); err != nil {
				return apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to save column %s.%s", table.Name, col.Name)
			}
		}

		for _, fk := range table.ForeignKeys {
			if _, err = tx.ExecContext(ctx,
				"INSERT INTO foreign_keys (connection_id, table_name, from_column, to_table, to_column) VALUES (?, ?, ?, ?, ?)",
				connectionId, table.Name, fk.FromColumn, fk.ToTable, fk.ToColumn,
			); err != nil {
				return apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to save foreign key %s.%s", table.Name, fk.FromColumn)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to commit schema")
	}
	return nil
}

// GetColumns returns the cached columns of a connection, grouped by table in reflection order.
func (r *SchemaRepository) GetColumns(ctx context.Context, connectionId int64) ([]models.Column, error) {
	query := `
		SELECT c.connection_id, c.table_name, c.name, c.type, c."notnull", c.dflt_value, c.pk
		FROM columns c
		JOIN tables t ON t.connection_id = c.connection_id AND t.table_name = c.table_name
		WHERE c.connection_id = ?
		ORDER BY t.rowid, c.column_id
	`

	rows, err := r.db.QueryContext(ctx, query, connectionId)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to get columns of connection %d", connectionId)
	}
	defer rows.Close()

	columns := []models.Column{}
	for rows.Next() {
		var col models.Column
		if err := rows.Scan(&col.ConnectionId, &col.TableName, &col.Name, &col.Type, &col.Notnull, &col.DfltValue, &col.PK); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to scan column")
		}
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to get columns")
	}
	return columns, nil
}

func (r *SchemaRepository) GetForeignKeys(ctx context.Context, connectionId int64) ([]models.ForeignKey, error) {
	query := `
		SELECT connection_id, table_name, from_column, to_table, to_column
		FROM foreign_keys
		WHERE connection_id = ?
		ORDER BY rowid
	`

	rows, err := r.db.QueryContext(ctx, query, connectionId)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrTypeDatabase, "failed to get foreign keys of connection %d", connectionId)
	}
	defer rows.Close()

	fks := []models.ForeignKey{}
	for rows.Next() {
		var fk models.ForeignKey
		if err := rows.Scan(&fk.ConnectionId, &fk.TableName, &fk.FromColumn, &fk.ToTable, &fk.ToColumn); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to scan foreign key")
		}
		fks = append(fks, fk)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "failed to get foreign keys")
	}
	return fks, nil
}

// Tables assembles the cached schema into tables with their primary and foreign keys.
func (r *SchemaRepository) Tables(ctx context.Context, connectionId int64) ([]models.Table, error) {
	columns, err := r.GetColumns(ctx, connectionId)
	if err != nil {
		return nil, err
	}
	fks, err := r.GetForeignKeys(ctx, connectionId)
	if err != nil {
		return nil, err
	}

	var tables []models.Table
	index := make(map[string]int)
	for _, col := range columns {
		i, ok := index[col.TableName]
		if !ok {
			i = len(tables)
			index[col.TableName] = i
			tables = append(tables, models.Table{Name: col.TableName})
		}
		tables[i].Columns = append(tables[i].Columns, col)
		if col.PK > 0 {
			tables[i].PrimaryKeys = append(tables[i].PrimaryKeys, col.Name)
		}
	}

	for _, fk := range fks {
		i, ok := index[fk.TableName]
		if !ok {
			return nil, apperrors.Newf(apperrors.ErrTypeInternal, "foreign key on unknown table %s", fk.TableName)
		}
		tables[i].ForeignKeys = append(tables[i].ForeignKeys, fk)
	}
	return tables, nil
}
