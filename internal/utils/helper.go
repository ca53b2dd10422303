package utils

import (
	"strconv"
	"strings"
)

func ParseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// QuoteIdent quotes a SQLite identifier so it can be interpolated into a statement.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral quotes a SQLite string literal, for PRAGMA arguments that reject bind parameters.
func QuoteLiteral(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}
