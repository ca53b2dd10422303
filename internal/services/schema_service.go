package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"grognon/internal/apperrors"
	"grognon/internal/completion"
	"grognon/internal/models"
	"grognon/internal/repositories"
	"grognon/internal/utils"
)

const (
	maxJunctionTableColumns = 6
	minJunctionTableFKs     = 2

	relOneToMany  = "||--o{"
	relOneToOne   = "||--||"
	relManyToMany = "}o--o{"
)

var mermaidUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// ReflectionService reads target schemas into the cache and renders views of the cache.
type ReflectionService struct {
	schemaRepo *repositories.SchemaRepository
}

func NewReflectionService(schemaRepo *repositories.SchemaRepository) *ReflectionService {
	return &ReflectionService{schemaRepo: schemaRepo}
}

// Reflect reads every user table of a SQLite handle and replaces the connection's cached schema.
func (s *ReflectionService) Reflect(ctx context.Context, connectionId int64, db *sql.DB) error {
	slog.Info("Reflecting connection", slog.Int64("connection_id", connectionId))

	tableNames, err := listTables(ctx, db)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTypeConnection, "failed to list tables of connection %d", connectionId)
	}

	tables := make([]models.Table, 0, len(tableNames))
	for _, name := range tableNames {
		table := models.Table{Name: name}

		table.Columns, err = tableInfo(ctx, db, name)
		if err != nil {
			return apperrors.Wrapf(err, apperrors.ErrTypeConnection, "failed to read columns of %s", name)
		}
		for _, col := range table.Columns {
			if col.PK > 0 {
				table.PrimaryKeys = append(table.PrimaryKeys, col.Name)
			}
		}

		table.ForeignKeys, err = foreignKeyList(ctx, db, name)
		if err != nil {
			return apperrors.Wrapf(err, apperrors.ErrTypeConnection, "failed to read foreign keys of %s", name)
		}

		tables = append(tables, table)
	}

	if err := s.schemaRepo.ReplaceSchema(ctx, connectionId, tables); err != nil {
		return err
	}

	slog.Info("Connection reflected", slog.Int64("connection_id", connectionId), slog.Int("tables", len(tables)))
	return nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_schema WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// PRAGMA arguments cannot be bound, hence the quoted literal.
func tableInfo(ctx context.Context, db *sql.DB, table string) ([]models.Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", utils.QuoteLiteral(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []models.Column
	for rows.Next() {
		var (
			cid int
			col models.Column
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &col.Notnull, &col.DfltValue, &col.PK); err != nil {
			return nil, err
		}
		col.TableName = table
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func foreignKeyList(ctx context.Context, db *sql.DB, table string) ([]models.ForeignKey, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", utils.QuoteLiteral(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []models.ForeignKey
	for rows.Next() {
		var (
			id, seq                   int
			toTable, from             string
			to                        sql.NullString
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &toTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fks = append(fks, models.ForeignKey{
			TableName:  table,
			FromColumn: from,
			ToTable:    toTable,
			ToColumn:   to.String,
		})
	}
	return fks, rows.Err()
}

// Completions returns the autocomplete extension for a connection's cached schema.
func (s *ReflectionService) Completions(ctx context.Context, connectionId int64) (completion.Extension, error) {
	columns, err := s.schemaRepo.GetColumns(ctx, connectionId)
	if err != nil {
		return completion.Extension{}, err
	}
	return completion.Build(columns), nil
}

func (s *ReflectionService) Columns(ctx context.Context, connectionId int64) ([]models.Column, error) {
	return s.schemaRepo.GetColumns(ctx, connectionId)
}

// Diagram renders the cached schema of a connection as a Mermaid ER diagram.
func (s *ReflectionService) Diagram(ctx context.Context, connectionId int64) (string, error) {
	tables, err := s.schemaRepo.Tables(ctx, connectionId)
	if err != nil {
		return "", err
	}
	return generateMermaid(tables, buildRelationships(tables)), nil
}

func buildRelationships(tables []models.Table) []models.Relationship {
	var relationships []models.Relationship
	junctionTables := detectJunctionTables(tables)

	for _, table := range tables {
		if junctionTables[table.Name] {
			for i := 0; i < len(table.ForeignKeys); i++ {
				for j := i + 1; j < len(table.ForeignKeys); j++ {
					relationships = append(relationships, models.Relationship{
						FromTable: table.ForeignKeys[i].ToTable,
						ToTable:   table.ForeignKeys[j].ToTable,
						Type:      relManyToMany,
					})
				}
			}
			continue
		}

		for _, fk := range table.ForeignKeys {
			relType := relOneToMany
			if len(table.PrimaryKeys) == 1 && table.PrimaryKeys[0] == fk.FromColumn {
				relType = relOneToOne
			}
			relationships = append(relationships, models.Relationship{
				FromTable: fk.ToTable,
				ToTable:   table.Name,
				Type:      relType,
			})
		}
	}

	return relationships
}

// A junction table has at least two foreign keys, all of them inside its primary key.
func detectJunctionTables(tables []models.Table) map[string]bool {
	junctionTables := make(map[string]bool)
	for _, table := range tables {
		if len(table.ForeignKeys) < minJunctionTableFKs ||
			len(table.PrimaryKeys) < minJunctionTableFKs ||
			len(table.Columns) > maxJunctionTableColumns {
			continue
		}

		allFKsInPK := true
		for _, fk := range table.ForeignKeys {
			if !utils.Contains(table.PrimaryKeys, fk.FromColumn) {
				allFKsInPK = false
				break
			}
		}
		if allFKsInPK {
			junctionTables[table.Name] = true
		}
	}
	return junctionTables
}

func generateMermaid(tables []models.Table, relationships []models.Relationship) string {
	var sb strings.Builder

	sb.WriteString("erDiagram\n")

	if len(relationships) > 0 {
		seen := make(map[string]bool)
		for _, rel := range relationships {
			key := fmt.Sprintf("%s:%s:%s", rel.FromTable, rel.Type, rel.ToTable)
			if seen[key] {
				continue
			}
			seen[key] = true

			// mermaid requires a label, an empty one hides it
			sb.WriteString(fmt.Sprintf("    %s %s %s : \"\"\n",
				mermaidName(rel.FromTable),
				rel.Type,
				mermaidName(rel.ToTable)))
		}
		sb.WriteString("\n")
	}

	for _, table := range tables {
		sb.WriteString(fmt.Sprintf("    %s {\n", mermaidName(table.Name)))

		for _, col := range table.Columns {
			annotations := ""
			if utils.Contains(table.PrimaryKeys, col.Name) {
				annotations = " PK"
			}
			if isForeignKey(table.ForeignKeys, col.Name) {
				if annotations == "" {
					annotations = " FK"
				} else {
					annotations += ", FK"
				}
			}

			sb.WriteString(fmt.Sprintf("        %s %s%s\n",
				simplifyDataType(col.Type),
				mermaidUnsafe.ReplaceAllString(col.Name, "_"),
				annotations))
		}

		sb.WriteString("    }\n\n")
	}

	return sb.String()
}

func mermaidName(table string) string {
	return strings.ToUpper(mermaidUnsafe.ReplaceAllString(table, "_"))
}

// simplifyDataType turns a declared SQLite type into a single mermaid token.
func simplifyDataType(dataType string) string {
	dt := strings.ToLower(strings.TrimSpace(dataType))
	if i := strings.Index(dt, "("); i >= 0 {
		dt = strings.TrimSpace(dt[:i])
	}

	switch {
	case dt == "":
		return "any"
	case dt == "integer" || dt == "int":
		return "int"
	case strings.Contains(dt, "char") || dt == "text" || dt == "clob":
		return "text"
	case dt == "real" || strings.HasPrefix(dt, "double") || dt == "float":
		return "real"
	case dt == "blob":
		return "blob"
	case strings.HasPrefix(dt, "numeric") || strings.HasPrefix(dt, "decimal"):
		return "numeric"
	case dt == "boolean" || dt == "bool":
		return "boolean"
	case strings.HasPrefix(dt, "datetime") || strings.HasPrefix(dt, "timestamp"):
		return "timestamp"
	case dt == "date":
		return "date"
	default:
		return mermaidUnsafe.ReplaceAllString(dt, "_")
	}
}

func isForeignKey(fks []models.ForeignKey, colName string) bool {
	for _, fk := range fks {
		if fk.FromColumn == colName {
			return true
		}
	}
	return false
}
