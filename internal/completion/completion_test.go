package completion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grognon/internal/models"
)

func TestBuild_Empty(t *testing.T) {
	for name, columns := range map[string][]models.Column{
		"nil":   nil,
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			ext := Build(columns)

			require.NotNil(t, ext.Schema)
			assert.Equal(t, 0, ext.Schema.Len())
			assert.Equal(t, DialectSQLite, ext.Dialect)
			assert.True(t, ext.UpperCaseKeywords)

			data, err := json.Marshal(ext)
			require.NoError(t, err)
			assert.JSONEq(t, `{"dialect":"SQLite","upperCaseKeywords":true,"schema":{}}`, string(data))
		})
	}
}

func TestBuild_SingleTable(t *testing.T) {
	columns := []models.Column{
		{TableName: "users", Name: "id", Type: "INTEGER"},
		{TableName: "users", Name: "email", Type: "TEXT"},
		{TableName: "users", Name: "score", Type: "REAL"},
	}

	ext := Build(columns)

	assert.Equal(t, []string{"users"}, ext.Schema.Tables())
	entries := ext.Schema.Table("users")
	require.Len(t, entries, len(columns))
	for i, column := range columns {
		assert.Equal(t, column.Name, entries[i].Label)
		assert.Equal(t, column.Type, entries[i].Detail)
		assert.Equal(t, TypeVariable, entries[i].Type)
	}
}

func TestBuild_ManyTables(t *testing.T) {
	columns := []models.Column{
		{TableName: "orders", Name: "id", Type: "INTEGER"},
		{TableName: "users", Name: "id", Type: "INTEGER"},
		{TableName: "orders", Name: "user_id", Type: "INTEGER"},
		{TableName: "items", Name: "sku", Type: "TEXT"},
	}

	ext := Build(columns)

	assert.Equal(t, 3, ext.Schema.Len())
	assert.Equal(t, []string{"orders", "users", "items"}, ext.Schema.Tables())
	assert.Len(t, ext.Schema.Table("orders"), 2)
	assert.Equal(t, "user_id", ext.Schema.Table("orders")[1].Label)
}

func TestSchema_MarshalJSONKeepsOrder(t *testing.T) {
	ext := Build([]models.Column{
		{TableName: "zeta", Name: "a", Type: "TEXT"},
		{TableName: "alpha", Name: "b", Type: "INTEGER"},
	})

	data, err := json.Marshal(ext.Schema)
	require.NoError(t, err)
	assert.Equal(t,
		`{"zeta":[{"label":"a","type":"variable","detail":"TEXT"}],"alpha":[{"label":"b","type":"variable","detail":"INTEGER"}]}`,
		string(data),
	)
}

func TestBuild_MissingTableName(t *testing.T) {
	ext := Build([]models.Column{{Name: "orphan", Type: "TEXT"}})

	assert.Equal(t, []string{""}, ext.Schema.Tables())
	assert.Equal(t, "orphan", ext.Schema.Table("")[0].Label)
}

func TestSchema_ZeroValue(t *testing.T) {
	var s Schema
	s.Append("users", Completion{Label: "id", Type: TypeVariable, Detail: "INTEGER"})

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []string{"users"}, s.Tables())
	assert.Len(t, s.Table("users"), 1)
}
