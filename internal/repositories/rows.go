package repositories

import (
	"database/sql"

	"grognon/internal/models"
)

// ScanObjects reads every remaining row into a column-keyed object, keeping driver values as is.
func ScanObjects(rows *sql.Rows) ([]models.Object, []string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var objects []models.Object
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}

		object := make(models.Object, len(columns))
		for i, col := range columns {
			object[col] = values[i]
		}
		objects = append(objects, object)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return objects, columns, nil
}
