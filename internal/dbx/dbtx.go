// Package dbx holds the database/sql plumbing shared by the Postgres user
// repository on the server and the SQLite session store of the CLI.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type hooksKey struct{}

type commitHooks struct {
	fns []func(context.Context)
}

// AfterCommit defers fn until the transaction started by WithTx on ctx has
// committed. Hooks of a rolled back transaction are dropped. Outside WithTx
// fn runs at once, since there is nothing to wait for.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	if h, ok := ctx.Value(hooksKey{}).(*commitHooks); ok {
		h.fns = append(h.fns, fn)
		return
	}
	fn(ctx)
}

// WithTx runs fn inside a transaction: commit on nil, rollback on error or
// panic (the panic is re-raised). AfterCommit hooks registered on the ctx
// passed to fn run in order after a successful commit.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    repo := users.NewPostgresRepository(tx)
//	    ...
//	    dbx.AfterCommit(ctx, func(ctx context.Context) { cache.Invalidate(ctx, name) })
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	hooks := &commitHooks{}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if err = tx.Commit(); err != nil {
			return
		}
		for _, h := range hooks.fns {
			h(ctx)
		}
	}()

	return fn(context.WithValue(ctx, hooksKey{}, hooks), tx)
}
