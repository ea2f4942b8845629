package repository

import (
	"context"
	"database/sql"
	"strings"
)

// where accumulates optional equality predicates joined with AND.  A nil
// filter value adds nothing, so an absent field matches every row.
type where struct {
	clauses []string
	args    []any
}

// eq adds "col = ?" when v is set.
func eq[T any](w *where, col string, v *T) {
	if v == nil {
		return
	}
	w.clauses = append(w.clauses, col+" = ?")
	w.args = append(w.args, *v)
}

// raw adds a literal predicate.
func (w *where) raw(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// with returns a copy of the predicate args followed by extra.
func (w *where) with(extra ...any) []any {
	out := make([]any, 0, len(w.args)+len(extra))
	out = append(out, w.args...)
	return append(out, extra...)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// countRows runs a COUNT(*) query.
func countRows(ctx context.Context, q queryer, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
