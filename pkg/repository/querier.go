package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
)

var ErrNotFound = errors.New("not found")

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Querier executes statements written with '?' placeholders
//
//nolint:lll // ok for interface
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	Dialect() Dialect
}

type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ sqlQuerier = (*sql.DB)(nil)
	_ sqlQuerier = (*sql.Tx)(nil)
	_ sqlQuerier = (*sql.Conn)(nil)
)

type conn struct {
	q       sqlQuerier
	dialect Dialect
}

// Wrap adapts a *sql.DB, *sql.Tx or *sql.Conn for the given dialect
func Wrap(q sqlQuerier, d Dialect) Querier {
	return &conn{q: q, dialect: d}
}

func (c *conn) Dialect() Dialect { return c.dialect }

func (c *conn) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, Rebind(c.dialect, query), args...)
}

func (c *conn) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, Rebind(c.dialect, query), args...)
}

func (c *conn) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, Rebind(c.dialect, query), args...)
}

// Rebind converts '?' placeholders to $n for postgres.
// Placeholders inside single quoted literals are left alone.
func Rebind(d Dialect, query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	inLiteral := false
	for _, r := range query {
		switch {
		case r == '\'':
			inLiteral = !inLiteral
			sb.WriteRune(r)
		case r == '?' && !inLiteral:
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// RowsAffected returns the number of affected rows, 0 if unknown
func RowsAffected(res sql.Result) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}

// CountRows returns the number of rows of table
func CountRows(ctx context.Context, conn Querier, table string) (int64, error) {
	var n int64
	//nolint:gosec // table names are constants of the callers
	err := conn.QueryRow(ctx, "select count(*) from "+table).Scan(&n)
	return n, err
}

// NotFound maps sql.ErrNoRows to ErrNotFound
func NotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
