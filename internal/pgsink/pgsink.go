// Package pgsink copies a table into PostgreSQL.
//
// Every column is created as TEXT; cell values are sent unchanged through the
// COPY protocol inside a single transaction, so a failed push leaves the
// target table as it was.
package pgsink

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/csvmaster/internal/table"
	"github.com/jackc/pgx/v5"
)

// maxIdentifierLen is PostgreSQL's NAMEDATALEN-1.
const maxIdentifierLen = 63

// ErrInvalidTableName is returned for empty or malformed target names.
var ErrInvalidTableName = errors.New("invalid table name")

// Beginner starts a transaction. *pgxpool.Pool and *pgx.Conn satisfy it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PushError reports the table and step of a failed push.
type PushError struct {
	Table string
	Op    string
	Err   error
}

func (e *PushError) Error() string {
	return fmt.Sprintf("push to %s: %s: %v", e.Table, e.Op, e.Err)
}

func (e *PushError) Unwrap() error { return e.Err }

// Pusher writes tables into a database.
type Pusher struct {
	db      Beginner
	replace bool
}

// New returns a Pusher. When replace is true an existing target table is
// dropped first; otherwise rows are appended to it.
func New(db Beginner, replace bool) *Pusher {
	return &Pusher{db: db, replace: replace}
}

// Push creates the target table if needed and copies every row of t into it.
// It returns the number of rows copied.
func (p *Pusher) Push(ctx context.Context, name string, t *table.Table) (int64, error) {
	ident, err := ParseIdentifier(name)
	if err != nil {
		return 0, &PushError{Table: name, Op: "validate", Err: err}
	}
	if t.ColumnCount() == 0 {
		return 0, &PushError{Table: name, Op: "validate", Err: errors.New("table has no columns")}
	}

	columns := ColumnNames(t.Headers())

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return 0, &PushError{Table: name, Op: "begin transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	if p.replace {
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+ident.Sanitize()); err != nil {
			return 0, &PushError{Table: name, Op: "drop table", Err: err}
		}
	}
	if _, err := tx.Exec(ctx, createTableSQL(ident, columns)); err != nil {
		return 0, &PushError{Table: name, Op: "create table", Err: err}
	}

	rows := t.Rows()
	n, err := tx.CopyFrom(ctx, ident, columns, pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		values := make([]any, len(rows[i]))
		for j, v := range rows[i] {
			values[j] = v
		}
		return values, nil
	}))
	if err != nil {
		return 0, &PushError{Table: name, Op: "copy rows", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &PushError{Table: name, Op: "commit", Err: err}
	}
	return n, nil
}

// ParseIdentifier splits an optionally schema-qualified name ("schema.table").
func ParseIdentifier(name string) (pgx.Identifier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidTableName)
	}
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	for _, p := range parts {
		if p == "" || len(p) > maxIdentifierLen {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, name)
		}
	}
	return pgx.Identifier(parts), nil
}

// ColumnNames turns headers into usable, unique column names.
// "Transaction ID" becomes "transaction_id"; blanks become column_N;
// repeats get a _2, _3, ... suffix.
func ColumnNames(headers []string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		base := toColumnName(h)
		if base == "" {
			base = "column_" + strconv.Itoa(i+1)
		}
		name := base
		for n := 2; seen[name]; n++ {
			suffix := "_" + strconv.Itoa(n)
			name = truncate(base, maxIdentifierLen-len(suffix)) + suffix
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

func toColumnName(header string) string {
	name := strings.ToLower(strings.Join(strings.Fields(header), "_"))
	return truncate(name, maxIdentifierLen)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func createTableSQL(ident pgx.Identifier, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgx.Identifier{c}.Sanitize() + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ident.Sanitize(), strings.Join(defs, ", "))
}
