package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Cache is a shared look-aside store for user records.
//
// Every username has a generation that Delete advances. Get reports the
// generation it observed, and Set only stores a record if the generation is
// still the same, so a reader that raced a write cannot put the old row back.
type Cache interface {
	// Get returns a nil user on a miss.
	Get(ctx context.Context, username string) (*models.User, int64, error)
	Set(ctx context.Context, user *models.User, generation int64) error
	Delete(ctx context.Context, username string) error
}

// Invalidator is implemented by repositories that keep copies of user
// records outside the store. Writers call it once their change is committed.
type Invalidator interface {
	Invalidate(ctx context.Context, username string)
}

// CachedRepository serves GetByUsername from a Cache and keeps it coherent
// on writes. Cache failures are logged and otherwise ignored.
//
// It must only wrap a repository that commits its own writes. Inside a
// transaction use the bare repository and call Invalidate after commit.
type CachedRepository struct {
	Repository
	cache Cache
	log   logging.Logger
}

func NewCachedRepository(inner Repository, cache Cache, log logging.Logger) *CachedRepository {
	return &CachedRepository{Repository: inner, cache: cache, log: log.With("module", "user_cache")}
}

func (r *CachedRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	cached, gen, cacheErr := r.cache.Get(ctx, username)
	if cacheErr != nil {
		r.log.Warn(ctx, "cache read failed", "username", username, "error", cacheErr)
	} else if cached != nil {
		return cached, nil
	}

	u, err := r.Repository.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	// no generation, no fill
	if cacheErr != nil {
		return u, nil
	}
	if err := r.cache.Set(ctx, u, gen); err != nil {
		r.log.Warn(ctx, "cache write failed", "username", username, "error", err)
	}
	return u, nil
}

func (r *CachedRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	u, err := r.Repository.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	r.Invalidate(ctx, user.Username)
	return u, nil
}

func (r *CachedRepository) Delete(ctx context.Context, username string) error {
	if err := r.Repository.Delete(ctx, username); err != nil {
		return err
	}
	r.Invalidate(ctx, username)
	return nil
}

func (r *CachedRepository) Invalidate(ctx context.Context, username string) {
	if err := r.cache.Delete(ctx, username); err != nil {
		r.log.Warn(ctx, "cache invalidation failed", "username", username, "error", err)
	}
}
