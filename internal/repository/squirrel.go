package repository

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// psql is the shared Squirrel statement builder configured for PostgreSQL dollar placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// joinColumns renders a column list for RETURNING clauses.
func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}

// offset converts a 1-based page number into a row offset.
func offset(page, pageSize int) uint64 {
	if page < 1 || pageSize < 1 {
		return 0
	}
	return uint64(page-1) * uint64(pageSize)
}
