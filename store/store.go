// Package store holds all SQL access. Every function takes a Querier, so
// callers decide the transactional boundary: a *sql.DB for one-shot reads,
// a *sql.Tx for multi-write units of work.
package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

var ErrNotFound = errors.New("not found")

func notFoundOr(err error, wrap string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return errors.Wrap(err, wrap)
}
