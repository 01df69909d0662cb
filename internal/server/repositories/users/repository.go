// Package users is the user directory: persistence of accounts keyed by
// username with a unique index on email.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository is implemented by the Postgres store, the in-memory store and
// the caching decorator.
//
// Misses return common.ErrorNotFound. Username or email collisions return
// common.ErrorAlreadyExists. Any other failure is an infrastructure fault.
type Repository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, username string) error
	ListAll(ctx context.Context) ([]*models.User, error)
}
