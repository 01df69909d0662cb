// Package services contains application services for the authkeeper client.
// This file defines the session service: register, login, refresh, logout
// and authenticated lookups, with the session kept in the local database.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/models"
	"github.com/dmitrijs2005/authkeeper/internal/client/repositories/session"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
)

// AuthService defines the session operations for the CLI.
//
// Contract:
//   - Register: create an account on the server (does not log in).
//   - Login: obtain a token pair and persist it locally.
//   - Me / User: authenticated lookups; an expired access token is refreshed
//     once transparently.
//   - Refresh: rotate the stored token pair.
//   - Logout: revoke on the server (best effort) and wipe the local session.
//   - Whoami: the username of the stored session, or "" when logged out.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, r models.Registration) (*models.User, error)
	Login(ctx context.Context, username string, password []byte) error
	Me(ctx context.Context) (*models.User, error)
	User(ctx context.Context, username string) (*models.User, error)
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client    client.Client
	db        *sql.DB
	serverURL string
}

// NewAuthService binds the API client to the local session database. The
// stored session only counts for the server it was obtained from.
func NewAuthService(c client.Client, db *sql.DB, serverURL string) AuthService {
	return &authService{client: c, db: db, serverURL: serverURL}
}

func (a *authService) repo() session.Repository {
	return session.NewSQLiteRepository(a.db)
}

func (a *authService) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	return a.client.Register(ctx, r)
}

func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	tokens, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	if err := a.save(ctx, username, tokens); err != nil {
		return fmt.Errorf("session saving error: %w", err)
	}
	return nil
}

// save replaces the stored session in a single transaction.
func (a *authService) save(ctx context.Context, username string, t *models.Tokens) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := session.NewSQLiteRepository(tx)
		if err := repo.Clear(ctx); err != nil {
			return err
		}
		for k, v := range map[string]string{
			session.KeyServerURL:    a.serverURL,
			session.KeyUsername:     username,
			session.KeyAccessToken:  t.AccessToken,
			session.KeyRefreshToken: t.RefreshToken,
			session.KeyCSRFToken:    t.CSRFToken,
		} {
			if err := repo.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// load returns the stored session, or client.ErrNotLoggedIn.
func (a *authService) load(ctx context.Context) (string, models.Tokens, error) {
	kv, err := a.repo().List(ctx)
	if err != nil {
		return "", models.Tokens{}, err
	}
	t := models.Tokens{
		AccessToken:  kv[session.KeyAccessToken],
		RefreshToken: kv[session.KeyRefreshToken],
		CSRFToken:    kv[session.KeyCSRFToken],
	}
	if t.Empty() || kv[session.KeyServerURL] != a.serverURL {
		return "", models.Tokens{}, client.ErrNotLoggedIn
	}
	return kv[session.KeyUsername], t, nil
}

func (a *authService) Refresh(ctx context.Context) error {
	username, cur, err := a.load(ctx)
	if err != nil {
		return err
	}
	_, err = a.rotate(ctx, username, cur)
	return err
}

// rotate exchanges the refresh token. A rejected refresh token ends the
// local session.
func (a *authService) rotate(ctx context.Context, username string, cur models.Tokens) (models.Tokens, error) {
	next, err := a.client.Refresh(ctx, cur)
	if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrForbidden) {
		_ = a.repo().Clear(ctx)
		return models.Tokens{}, fmt.Errorf("%w: session expired, log in again", client.ErrNotLoggedIn)
	}
	if err != nil {
		return models.Tokens{}, err
	}
	if err := a.save(ctx, username, next); err != nil {
		return models.Tokens{}, fmt.Errorf("session saving error: %w", err)
	}
	return *next, nil
}

// authorized runs call with the stored tokens, refreshing and retrying once
// when the access token is rejected.
func (a *authService) authorized(ctx context.Context, call func(models.Tokens) (*models.User, error)) (*models.User, error) {
	username, cur, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	u, err := call(cur)
	if !errors.Is(err, client.ErrUnauthorized) || cur.RefreshToken == "" {
		return u, err
	}

	next, err := a.rotate(ctx, username, cur)
	if err != nil {
		return nil, err
	}
	return call(next)
}

func (a *authService) Me(ctx context.Context) (*models.User, error) {
	return a.authorized(ctx, func(t models.Tokens) (*models.User, error) {
		return a.client.Me(ctx, t)
	})
}

func (a *authService) User(ctx context.Context, username string) (*models.User, error) {
	return a.authorized(ctx, func(t models.Tokens) (*models.User, error) {
		return a.client.User(ctx, t, username)
	})
}

func (a *authService) Logout(ctx context.Context) error {
	_, cur, err := a.load(ctx)
	if errors.Is(err, client.ErrNotLoggedIn) {
		return a.repo().Clear(ctx)
	}
	if err != nil {
		return err
	}

	remoteErr := a.client.Logout(ctx, cur)
	if err := a.repo().Clear(ctx); err != nil {
		return err
	}
	if remoteErr != nil {
		return fmt.Errorf("local session cleared, server logout failed: %w", remoteErr)
	}
	return nil
}

func (a *authService) Whoami(ctx context.Context) (string, error) {
	username, _, err := a.load(ctx)
	if errors.Is(err, client.ErrNotLoggedIn) {
		return "", nil
	}
	return username, err
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
