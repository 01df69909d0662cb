package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*models.User, int64, error) { return nil, 0, nil }
func (nopCache) Set(context.Context, *models.User, int64) error           { return nil }
func (nopCache) Delete(context.Context, string) error                     { return nil }

func TestPostgresManager_Users(t *testing.T) {
	db, mock := newDB(t)

	m := NewPostgresRepositoryManager()
	_, ok := m.Users(db).(*users.PostgresRepository)
	assert.True(t, ok, "plain repository without a cache")

	m = NewPostgresRepositoryManager(WithUserCache(nopCache{}, nil))
	_, ok = m.Users(db).(*users.CachedRepository)
	assert.True(t, ok, "cached repository when a cache is configured")

	mock.ExpectBegin()
	mock.ExpectRollback()
	tx, err := db.Begin()
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()
	_, ok = m.Users(tx).(*users.PostgresRepository)
	assert.True(t, ok, "transactions never see the cache")
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager()
	require.NoError(t, m.RunMigrations(context.Background(), db))
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)

	boom := errors.New("boom")
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return boom
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager()
	err := m.RunMigrations(context.Background(), db)
	assert.ErrorIs(t, err, boom)
}

func TestMemoryManager_SharesStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepositoryManager()
	require.NoError(t, m.RunMigrations(ctx, nil))

	_, err := m.Users(nil).Create(ctx, &models.User{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	u, err := m.Users(nil).GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
}
