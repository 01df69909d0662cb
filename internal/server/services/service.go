// Package services contains server-side business logic: the auth core
// (login, refresh, logout), the session authenticator and the user account
// service built on top of the user directory.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

// store bundles the directory handles every service needs. db is nil when
// the in-memory manager is in use.
type store struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func (s *store) users() users.Repository {
	return s.repomanager.Users(s.db)
}

func (s *store) today() timex.Date {
	return timex.DateOf(s.now().UTC())
}

// inTx runs fn inside a transaction when backed by a database and directly
// otherwise. Under a transaction the repository bypasses the cache.
func (s *store) inTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error {
	if s.db == nil {
		return fn(ctx, s.users())
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, s.repomanager.Users(tx))
	})
}

// evict drops cached copies of username. Call it once the write is committed.
func (s *store) evict(ctx context.Context, username string) {
	if inv, ok := s.users().(users.Invalidator); ok {
		inv.Invalidate(ctx, username)
	}
}

// unavailable marks a directory fault so it is never mistaken for a
// business outcome by the transport layer.
func unavailable(err error) error {
	return fmt.Errorf("%w: %w", common.ErrorUnavailable, err)
}
