package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/models"
	"github.com/dmitrijs2005/authkeeper/internal/client/repositories/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServer = "http://127.0.0.1:8000"

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeClient implements client.Client. Access tokens listed in valid are
// accepted by Me and User.
type fakeClient struct {
	valid map[string]bool

	loginTokens *models.Tokens
	loginErr    error

	refreshTokens *models.Tokens
	refreshErr    error
	refreshCalls  int

	logoutErr   error
	logoutCalls int
}

func (f *fakeClient) Ping(context.Context) error { return nil }

func (f *fakeClient) Register(_ context.Context, r models.Registration) (*models.User, error) {
	return &models.User{Username: r.Username, Email: r.Email}, nil
}

func (f *fakeClient) Login(context.Context, string, string) (*models.Tokens, error) {
	return f.loginTokens, f.loginErr
}

func (f *fakeClient) Refresh(context.Context, models.Tokens) (*models.Tokens, error) {
	f.refreshCalls++
	return f.refreshTokens, f.refreshErr
}

func (f *fakeClient) Logout(context.Context, models.Tokens) error {
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeClient) Me(_ context.Context, t models.Tokens) (*models.User, error) {
	if !f.valid[t.AccessToken] {
		return nil, &client.APIError{Status: 401}
	}
	return &models.User{Username: "alice"}, nil
}

func (f *fakeClient) User(_ context.Context, t models.Tokens, username string) (*models.User, error) {
	if !f.valid[t.AccessToken] {
		return nil, &client.APIError{Status: 401}
	}
	return &models.User{Username: username}, nil
}

func loggedIn(t *testing.T, fc *fakeClient) (AuthService, *sql.DB) {
	t.Helper()
	db := setupDB(t)
	svc := NewAuthService(fc, db, testServer)
	require.NoError(t, svc.Login(context.Background(), "alice", []byte("Secure1!x")))
	return svc, db
}

func TestLogin_PersistsSession(t *testing.T) {
	fc := &fakeClient{loginTokens: &models.Tokens{AccessToken: "a1", RefreshToken: "r1", CSRFToken: "c1"}}
	_, db := loggedIn(t, fc)

	kv, err := session.NewSQLiteRepository(db).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		session.KeyServerURL:    testServer,
		session.KeyUsername:     "alice",
		session.KeyAccessToken:  "a1",
		session.KeyRefreshToken: "r1",
		session.KeyCSRFToken:    "c1",
	}, kv)
}

func TestLogin_Error(t *testing.T) {
	fc := &fakeClient{loginErr: &client.APIError{Status: 401}}
	svc := NewAuthService(fc, setupDB(t), testServer)

	err := svc.Login(context.Background(), "alice", []byte("nope"))
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	name, err := svc.Whoami(context.Background())
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestMe_NotLoggedIn(t *testing.T) {
	svc := NewAuthService(&fakeClient{}, setupDB(t), testServer)
	_, err := svc.Me(context.Background())
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
}

func TestMe_OtherServerSessionIgnored(t *testing.T) {
	fc := &fakeClient{
		loginTokens: &models.Tokens{AccessToken: "a1", RefreshToken: "r1"},
		valid:       map[string]bool{"a1": true},
	}
	_, db := loggedIn(t, fc)

	other := NewAuthService(fc, db, "https://auth.example.com")
	_, err := other.Me(context.Background())
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
}

func TestMe_RefreshesExpiredAccessToken(t *testing.T) {
	fc := &fakeClient{
		loginTokens:   &models.Tokens{AccessToken: "stale", RefreshToken: "r1", CSRFToken: "c1"},
		refreshTokens: &models.Tokens{AccessToken: "fresh", RefreshToken: "r2", CSRFToken: "c2"},
		valid:         map[string]bool{"fresh": true},
	}
	svc, db := loggedIn(t, fc)

	u, err := svc.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, 1, fc.refreshCalls)

	stored, err := session.NewSQLiteRepository(db).Get(context.Background(), session.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "r2", stored)

	u, err = svc.User(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, 1, fc.refreshCalls, "fresh token needs no refresh")
}

func TestMe_RejectedRefreshEndsSession(t *testing.T) {
	fc := &fakeClient{
		loginTokens: &models.Tokens{AccessToken: "stale", RefreshToken: "r1"},
		refreshErr:  &client.APIError{Status: 401},
	}
	svc, _ := loggedIn(t, fc)

	_, err := svc.Me(context.Background())
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)

	name, err := svc.Whoami(context.Background())
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestRefresh_UnavailableKeepsSession(t *testing.T) {
	fc := &fakeClient{
		loginTokens: &models.Tokens{AccessToken: "a1", RefreshToken: "r1"},
		refreshErr:  client.ErrUnavailable,
	}
	svc, _ := loggedIn(t, fc)

	err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, client.ErrUnavailable)

	name, err := svc.Whoami(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
}

func TestLogout(t *testing.T) {
	t.Run("clears local session", func(t *testing.T) {
		fc := &fakeClient{loginTokens: &models.Tokens{AccessToken: "a1", RefreshToken: "r1"}}
		svc, _ := loggedIn(t, fc)

		require.NoError(t, svc.Logout(context.Background()))
		assert.Equal(t, 1, fc.logoutCalls)

		name, err := svc.Whoami(context.Background())
		require.NoError(t, err)
		assert.Empty(t, name)
	})

	t.Run("server failure still clears", func(t *testing.T) {
		fc := &fakeClient{
			loginTokens: &models.Tokens{AccessToken: "a1", RefreshToken: "r1"},
			logoutErr:   client.ErrUnavailable,
		}
		svc, _ := loggedIn(t, fc)

		err := svc.Logout(context.Background())
		assert.ErrorIs(t, err, client.ErrUnavailable)

		name, err := svc.Whoami(context.Background())
		require.NoError(t, err)
		assert.Empty(t, name)
	})

	t.Run("logged out is a no-op", func(t *testing.T) {
		fc := &fakeClient{}
		svc := NewAuthService(fc, setupDB(t), testServer)
		require.NoError(t, svc.Logout(context.Background()))
		assert.Zero(t, fc.logoutCalls)
	})
}

func TestRegister_Proxies(t *testing.T) {
	svc := NewAuthService(&fakeClient{}, setupDB(t), testServer)
	u, err := svc.Register(context.Background(), models.Registration{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}
