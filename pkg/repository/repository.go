// Package repository wraps database/sql with the small set of generic
// helpers the domain repositories share: transactions, typed row mapping,
// and driver error translation.
package repository

import (
	"context"
	"database/sql"
)

// Queryable is the read surface shared by *sql.DB, *sql.Tx, and *sql.Conn.
type Queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Execable is the write surface shared by *sql.DB, *sql.Tx, and *sql.Conn.
type Execable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Scanner is the row-shaped subset of *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc maps one scanned row to a typed value.
type ScanFunc[T any] func(Scanner) (T, error)

// Transact runs fn inside a transaction. The transaction commits when fn
// succeeds and rolls back when it returns an error.
func Transact[T any](ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	out, err := fn(tx)
	if err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return out, nil
}

// QueryOne runs a statement expected to return one row and maps it with
// scan. A missing row surfaces as sql.ErrNoRows from the scan.
func QueryOne[T any](ctx context.Context, q Queryable, stmt string, args []any, scan ScanFunc[T]) (T, error) {
	out, err := scan(q.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// QueryMany runs a statement and maps every returned row. No rows is a
// valid result and yields an empty, non-nil slice.
func QueryMany[T any](ctx context.Context, q Queryable, stmt string, args []any, scan ScanFunc[T]) ([]T, error) {
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ExecExpectOne runs a statement that must affect at least one row and
// reports sql.ErrNoRows when it affects none.
func ExecExpectOne(ctx context.Context, e Execable, stmt string, args ...any) error {
	res, err := e.ExecContext(ctx, stmt, args...)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
