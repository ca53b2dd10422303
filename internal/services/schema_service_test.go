package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grognon/internal/models"
)

func TestReflectionService_Reflect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	con := env.connect(t)

	columns, err := env.reflection.Columns(ctx, con.ConnectionId)
	require.NoError(t, err)
	require.NotEmpty(t, columns)

	assert.Equal(t, "users", columns[0].TableName)
	assert.Equal(t, "id", columns[0].Name)
	assert.Equal(t, 1, columns[0].PK)
	assert.Equal(t, "VARCHAR(255)", columns[1].Type)
	assert.True(t, columns[1].Notnull)
	require.NotNil(t, columns[2].DfltValue)
	assert.Equal(t, "0", *columns[2].DfltValue)

	ext, err := env.reflection.Completions(ctx, con.ConnectionId)
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "profiles", "orders", "tags", "user_tags"}, ext.Schema.Tables())
	assert.Len(t, ext.Schema.Table("orders"), 3)
}

func TestReflectionService_Diagram(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	con := env.connect(t)

	diagram, err := env.reflection.Diagram(ctx, con.ConnectionId)
	require.NoError(t, err)

	assert.Contains(t, diagram, "erDiagram\n")
	assert.Contains(t, diagram, `USERS ||--|| PROFILES : ""`)
	assert.Contains(t, diagram, `USERS ||--o{ ORDERS : ""`)
	assert.True(t,
		strings.Contains(diagram, `USERS }o--o{ TAGS : ""`) || strings.Contains(diagram, `TAGS }o--o{ USERS : ""`),
		diagram)
	assert.Contains(t, diagram, "        text email\n")
	assert.Contains(t, diagram, "        int user_id FK\n")
	assert.Contains(t, diagram, "        int user_id PK, FK\n")
	assert.NotContains(t, diagram, "USER_TAGS ||")
}

func TestBuildRelationships(t *testing.T) {
	tables := []models.Table{
		{
			Name:        "a",
			Columns:     []models.Column{{Name: "id"}},
			PrimaryKeys: []string{"id"},
		},
		{
			Name:        "b",
			Columns:     []models.Column{{Name: "id"}, {Name: "a_id"}},
			PrimaryKeys: []string{"id"},
			ForeignKeys: []models.ForeignKey{{FromColumn: "a_id", ToTable: "a"}},
		},
		{
			Name:        "a_b",
			Columns:     []models.Column{{Name: "a_id"}, {Name: "b_id"}},
			PrimaryKeys: []string{"a_id", "b_id"},
			ForeignKeys: []models.ForeignKey{{FromColumn: "a_id", ToTable: "a"}, {FromColumn: "b_id", ToTable: "b"}},
		},
	}

	rels := buildRelationships(tables)

	assert.Equal(t, []models.Relationship{
		{FromTable: "a", ToTable: "b", Type: relOneToMany},
		{FromTable: "a", ToTable: "b", Type: relManyToMany},
	}, rels)
}

func TestDetectJunctionTables_TooWide(t *testing.T) {
	cols := make([]models.Column, maxJunctionTableColumns+1)
	table := models.Table{
		Name:        "wide",
		Columns:     cols,
		PrimaryKeys: []string{"a_id", "b_id"},
		ForeignKeys: []models.ForeignKey{{FromColumn: "a_id"}, {FromColumn: "b_id"}},
	}

	assert.Empty(t, detectJunctionTables([]models.Table{table}))
}

func TestSimplifyDataType(t *testing.T) {
	tests := map[string]string{
		"":                 "any",
		"INTEGER":          "int",
		"VARCHAR(255)":     "text",
		"TEXT":             "text",
		"DOUBLE PRECISION": "real",
		"NUMERIC(10,2)":    "numeric",
		"DATETIME":         "timestamp",
		"BLOB":             "blob",
		"UNSIGNED BIG INT": "unsigned_big_int",
	}

	for input, expected := range tests {
		assert.Equal(t, expected, simplifyDataType(input), input)
	}
}
