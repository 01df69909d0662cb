package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// MemoryRepositoryManager hands out one shared in-memory store regardless of
// the DBTX it is given. Transactions are not supported; callers pass nil.
type MemoryRepositoryManager struct {
	users users.Repository
}

func NewMemoryRepositoryManager(opts ...Option) RepositoryManager {
	o := buildOptions(opts)
	return &MemoryRepositoryManager{users: o.decorate(users.NewMemoryRepository())}
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

// RunMigrations is a no-op: there is no schema.
func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}
