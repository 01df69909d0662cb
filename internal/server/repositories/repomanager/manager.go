package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX (a *sql.DB or a
// *sql.Tx) and owns the schema.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}

type options struct {
	cache    users.Cache
	cacheLog logging.Logger
}

type Option func(*options)

// WithUserCache puts a read-through cache in front of every users.Repository
// the manager returns.
func WithUserCache(c users.Cache, log logging.Logger) Option {
	return func(o *options) {
		o.cache = c
		if log != nil {
			o.cacheLog = log
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{cacheLog: logging.Nop{}}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o options) decorate(r users.Repository) users.Repository {
	if o.cache == nil {
		return r
	}
	return users.NewCachedRepository(r, o.cache, o.cacheLog)
}
