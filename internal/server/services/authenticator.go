package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// Authenticator resolves an access token to a user. It is the dependency
// every protected endpoint consumes.
type Authenticator struct {
	store
	codec *auth.TokenCodec
	log   logging.Logger
}

func NewAuthenticator(db *sql.DB, m repomanager.RepositoryManager, codec *auth.TokenCodec, log logging.Logger) *Authenticator {
	return &Authenticator{
		store: store{db: db, repomanager: m, now: time.Now},
		codec: codec,
		log:   log.With("module", "authenticator"),
	}
}

// Authenticate returns (nil, nil) for an anonymous caller: no token, a token
// that fails to decode as an access token, or a subject that no longer
// exists. Only a directory fault is an error.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}

	claims, err := a.codec.DecodeAt(token, auth.AccessToken, a.now())
	if err != nil {
		a.log.Debug(ctx, "access token rejected", "error", err)
		return nil, nil
	}

	user, err := a.users().GetByUsername(ctx, claims.Subject)
	if errors.Is(err, common.ErrorNotFound) {
		a.log.Debug(ctx, "token subject not found", "username", claims.Subject)
		return nil, nil
	}
	if err != nil {
		a.log.Error(ctx, "user lookup failed", "username", claims.Subject, "error", err)
		return nil, unavailable(err)
	}
	return user, nil
}
