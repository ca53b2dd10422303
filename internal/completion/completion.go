// Package completion turns reflected columns into the schema a SQL editor uses for autocompletion.
package completion

import (
	"bytes"
	"encoding/json"

	"grognon/internal/models"
)

const (
	DialectSQLite = "SQLite"
	TypeVariable  = "variable"
)

// Completion is one suggestion shown by the editor.
type Completion struct {
	Label  string `json:"label"`
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

// Schema maps table names to their suggestions. Tables keep first-seen order.
// The zero value is an empty schema ready to use.
type Schema struct {
	order  []string
	tables map[string][]Completion
}

func NewSchema() *Schema {
	return &Schema{tables: make(map[string][]Completion)}
}

// Append adds a suggestion to the table, creating the table entry on first use.
func (s *Schema) Append(table string, c Completion) {
	if s.tables == nil {
		s.tables = make(map[string][]Completion)
	}
	if _, ok := s.tables[table]; !ok {
		s.order = append(s.order, table)
	}
	s.tables[table] = append(s.tables[table], c)
}

func (s *Schema) Tables() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Schema) Table(name string) []Completion {
	return s.tables[name]
}

func (s *Schema) Len() int {
	return len(s.order)
}

// MarshalJSON writes the schema as an object whose keys follow table order.
func (s *Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, table := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(table)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		entries, err := json.Marshal(s.tables[table])
		if err != nil {
			return nil, err
		}
		buf.Write(entries)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Extension is the editor configuration for a connection.
type Extension struct {
	Dialect           string  `json:"dialect"`
	UpperCaseKeywords bool    `json:"upperCaseKeywords"`
	Schema            *Schema `json:"schema"`
}

// Build groups columns by table. A nil slice yields an empty schema.
func Build(columns []models.Column) Extension {
	schema := NewSchema()
	for _, column := range columns {
		schema.Append(column.TableName, Completion{
			Label:  column.Name,
			Type:   TypeVariable,
			Detail: column.Type,
		})
	}

	return Extension{
		Dialect:           DialectSQLite,
		UpperCaseKeywords: true,
		Schema:            schema,
	}
}
