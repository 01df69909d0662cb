package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"username", "email", "password_hash", "date_of_birth", "bank_balance", "created_at"}

// txAwareCache remembers whether the database still had pending
// expectations (an open transaction) whenever it was touched.
type txAwareCache struct {
	mock sqlmock.Sqlmock
	data map[string]*models.User
	gens map[string]int64

	gets             int
	deletes          int
	deletedBeforeEnd bool
}

func newTxAwareCache(mock sqlmock.Sqlmock) *txAwareCache {
	return &txAwareCache{mock: mock, data: map[string]*models.User{}, gens: map[string]int64{}}
}

func (c *txAwareCache) Get(_ context.Context, username string) (*models.User, int64, error) {
	c.gets++
	return c.data[username].Clone(), c.gens[username], nil
}

func (c *txAwareCache) Set(_ context.Context, u *models.User, gen int64) error {
	if c.gens[u.Username] == gen {
		c.data[u.Username] = u.Clone()
	}
	return nil
}

func (c *txAwareCache) Delete(_ context.Context, username string) error {
	c.deletes++
	if c.mock.ExpectationsWereMet() != nil {
		c.deletedBeforeEnd = true
	}
	delete(c.data, username)
	c.gens[username]++
	return nil
}

func newPostgresFixture(t *testing.T) (*fixture, *sql.DB, sqlmock.Sqlmock, *txAwareCache) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cache := newTxAwareCache(mock)
	m := repomanager.NewPostgresRepositoryManager(repomanager.WithUserCache(cache, nil))

	f := newFixture(t, m)
	f.auth = NewAuthService(db, m, f.codec, f.hasher, logging.Nop{})
	f.authn = NewAuthenticator(db, m, f.codec, logging.Nop{})
	f.users = NewUserService(db, m, f.hasher, logging.Nop{})
	f.setNow(testNow)
	return f, db, mock, cache
}

func aliceRow(hash string) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).
		AddRow("alice", "alice@example.com", hash, time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), "0", testNow)
}

func TestUpdate_InvalidatesCacheAfterCommit(t *testing.T) {
	f, _, mock, cache := newPostgresFixture(t)
	ctx := context.Background()

	oldHash, err := f.hasher.Hash(alicePass)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM users\s+WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(aliceRow(oldHash))
	mock.ExpectQuery(`UPDATE users SET`).
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(testNow))
	mock.ExpectCommit()

	newPass := "Changed2@pw"
	_, err = f.users.Update(ctx, "alice", UpdateInput{Password: &newPass})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Zero(t, cache.gets, "the transaction reads the database, not the cache")
	assert.Equal(t, 1, cache.deletes)
	assert.False(t, cache.deletedBeforeEnd, "invalidated while the transaction was open")
}

func TestUpdate_StaleCacheIsNotUsedForTheWrite(t *testing.T) {
	f, _, mock, cache := newPostgresFixture(t)
	ctx := context.Background()

	// the cache holds an old email; the row has moved on
	cache.data["alice"] = &models.User{Username: "alice", Email: "stale@example.com", PasswordHash: "h"}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM users\s+WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(aliceRow("h"))
	mock.ExpectQuery(`UPDATE users SET`).
		WithArgs("alice", "alice@example.com", "h", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(testNow))
	mock.ExpectCommit()

	dob := aliceDOB
	_, err := f.users.Update(ctx, "alice", UpdateInput{DateOfBirth: &dob})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.NotContains(t, cache.data, "alice")
}

func TestDelete_CachedUserStopsAuthenticating(t *testing.T) {
	f, _, mock, cache := newPostgresFixture(t)
	ctx := context.Background()

	token, err := f.codec.Mint("alice", auth.AccessToken, testNow)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .* FROM users\s+WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(aliceRow("h"))
	u, err := f.authn.Authenticate(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Contains(t, cache.data, "alice")

	mock.ExpectExec(`DELETE FROM users WHERE username = \$1`).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, f.users.Delete(ctx, "alice"))
	assert.False(t, cache.deletedBeforeEnd)

	mock.ExpectQuery(`SELECT .* FROM users\s+WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns))
	u, err = f.authn.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}
