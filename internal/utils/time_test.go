package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisplayTime(t *testing.T) {
	instant := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	expected := instant.Local().Format(DisplayLayout)

	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{name: "epoch seconds int64", input: instant.Unix(), expected: expected},
		{name: "epoch seconds int", input: int(instant.Unix()), expected: expected},
		{name: "epoch seconds float", input: float64(instant.Unix()), expected: expected},
		{name: "time value", input: instant, expected: expected},
		{name: "time pointer", input: &instant, expected: expected},
		{name: "rfc3339 string", input: instant.Format(time.RFC3339), expected: expected},
		{name: "sqlite string is local", input: "2024-03-05 14:07:09", expected: "3/5/2024, 2:07:09 PM"},
		{name: "nil", input: nil, expected: ""},
		{name: "zero number", input: 0, expected: ""},
		{name: "empty string", input: "", expected: ""},
		{name: "zero time", input: time.Time{}, expected: ""},
		{name: "nil time pointer", input: (*time.Time)(nil), expected: ""},
		{name: "boolean", input: true, expected: ""},
		{name: "garbage string", input: "not a date", expected: ""},
		{name: "struct", input: struct{}{}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplayTime(tt.input))
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"users"`, QuoteIdent("users"))
	assert.Equal(t, `"we""ird"`, QuoteIdent(`we"ird`))
	assert.Equal(t, `'it''s'`, QuoteLiteral("it's"))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains(nil, "a"))
}
