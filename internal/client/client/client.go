package client

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/client/models"
)

type Client interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, r models.Registration) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.Tokens, error)
	Refresh(ctx context.Context, t models.Tokens) (*models.Tokens, error)
	Logout(ctx context.Context, t models.Tokens) error
	Me(ctx context.Context, t models.Tokens) (*models.User, error)
	User(ctx context.Context, t models.Tokens, username string) (*models.User, error)
}
