package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var (
	testNow   = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	aliceDOB  = timex.NewDate(2000, time.January, 1)
	alicePass = "Secure1!x"
)

type fakeManager struct {
	repo users.Repository
}

func (m fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m fakeManager) Users(dbx.DBTX) users.Repository              { return m.repo }

// failingRepo answers every call with err.
type failingRepo struct {
	err error
}

func (f failingRepo) GetByUsername(context.Context, string) (*models.User, error) { return nil, f.err }
func (f failingRepo) GetByEmail(context.Context, string) (*models.User, error)    { return nil, f.err }
func (f failingRepo) Create(context.Context, *models.User) (*models.User, error)  { return nil, f.err }
func (f failingRepo) Update(context.Context, *models.User) (*models.User, error)  { return nil, f.err }
func (f failingRepo) Delete(context.Context, string) error                        { return f.err }
func (f failingRepo) ListAll(context.Context) ([]*models.User, error)             { return nil, f.err }

type fixture struct {
	manager repomanager.RepositoryManager
	codec   *auth.TokenCodec
	hasher  *cryptox.BcryptHasher
	auth    *AuthService
	authn   *Authenticator
	users   *UserService
}

func newFixture(t *testing.T, m repomanager.RepositoryManager) *fixture {
	t.Helper()
	if m == nil {
		m = repomanager.NewMemoryRepositoryManager()
	}
	codec, err := auth.NewTokenCodec([]byte("test-secret"), time.Hour, 7*24*time.Hour)
	require.NoError(t, err)
	hasher, err := cryptox.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	f := &fixture{
		manager: m,
		codec:   codec,
		hasher:  hasher,
		auth:    NewAuthService(nil, m, codec, hasher, logging.Nop{}),
		authn:   NewAuthenticator(nil, m, codec, logging.Nop{}),
		users:   NewUserService(nil, m, hasher, logging.Nop{}),
	}
	f.setNow(testNow)
	return f
}

func (f *fixture) setNow(now time.Time) {
	clock := func() time.Time { return now }
	f.auth.now = clock
	f.authn.now = clock
	f.users.now = clock
}

func (f *fixture) registerAlice(t *testing.T) *models.User {
	t.Helper()
	dob := aliceDOB
	u, err := f.users.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: alicePass, DateOfBirth: &dob,
	})
	require.NoError(t, err)
	return u
}
