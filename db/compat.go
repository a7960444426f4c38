package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// Dialect represents the SQL database backend in use.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// CompatDB wraps *sql.DB to provide transparent ? → $N placeholder
// conversion for Postgres while keeping SQLite queries unchanged.
type CompatDB struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewCompatDB(db *sql.DB, dialect Dialect) *CompatDB {
	return &CompatDB{DB: db, Dialect: dialect}
}

func (d *CompatDB) Close() error     { return d.DB.Close() }
func (d *CompatDB) IsPostgres() bool { return d.Dialect == DialectPostgres }

func (d *CompatDB) rewrite(query string) string {
	if d.Dialect == DialectSQLite {
		return query
	}
	return rewritePlaceholders(query)
}

func (d *CompatDB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return d.DB.Exec(d.rewrite(query), args...)
}

func (d *CompatDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return d.DB.ExecContext(ctx, d.rewrite(query), args...)
}

func (d *CompatDB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return d.DB.Query(d.rewrite(query), args...)
}

func (d *CompatDB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return d.DB.QueryContext(ctx, d.rewrite(query), args...)
}

func (d *CompatDB) QueryRow(query string, args ...interface{}) *sql.Row {
	return d.DB.QueryRow(d.rewrite(query), args...)
}

func (d *CompatDB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return d.DB.QueryRowContext(ctx, d.rewrite(query), args...)
}

// rewritePlaceholders converts ? to $1, $2, ... for Postgres.
// Respects single-quoted string literals and escaped quotes ('').
func rewritePlaceholders(query string) string {
	var buf strings.Builder
	buf.Grow(len(query) + 32)
	n := 1
	inStr := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '\'' {
			if inStr && i+1 < len(query) && query[i+1] == '\'' {
				// Escaped quote ('') — stays inside the string literal.
				buf.WriteByte(c)
				buf.WriteByte(query[i+1])
				i++
				continue
			}
			inStr = !inStr
			buf.WriteByte(c)
		} else if c == '?' && !inStr {
			buf.WriteByte('$')
			buf.WriteString(strconv.Itoa(n))
			n++
		} else {
			buf.WriteByte(c)
		}
	}
	return buf.String()
}

// NowUTC returns a SQL expression for the current UTC time as ISO 8601 text.
// Stored timestamps are text in both dialects so ORDER BY created_at sorts
// chronologically.
func (d *CompatDB) NowUTC() string {
	if d.IsPostgres() {
		return `to_char(now() AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"')`
	}
	return `strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`
}
