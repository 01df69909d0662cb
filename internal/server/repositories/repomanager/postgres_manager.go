// Package repomanager provides RepositoryManager implementations for
// PostgreSQL and for process memory, wiring repository constructors and
// database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	opts options
}

// Users returns a users.Repository bound to the provided DBTX. Inside a
// transaction the cache is bypassed; the caller invalidates after commit.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	repo := users.NewPostgresRepository(db)
	if _, inTx := db.(*sql.Tx); inTx {
		return repo
	}
	return m.opts.decorate(repo)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return oops.Code("MIGRATION_DIALECT_FAILED").Wrap(err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return oops.Code("MIGRATION_UP_FAILED").Wrap(err)
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(opts ...Option) RepositoryManager {
	return &PostgresRepositoryManager{opts: buildOptions(opts)}
}
