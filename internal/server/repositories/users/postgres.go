package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

const userColumns = `username, email, password_hash, date_of_birth, bank_balance, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.Username, &u.Email, &u.PasswordHash, &u.DateOfBirth, &u.BankBalance, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// classify maps driver errors onto the directory's sentinels.
func classify(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.ConstraintName)
	}
	return oops.With("operation", op).Wrap(fmt.Errorf("db error: %w", err))
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE username = $1
		 `

	u, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, classify("get user by username", err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE email = $1
		 `

	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, classify("get user by email", err)
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, email, password_hash, date_of_birth, bank_balance)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.DateOfBirth, user.BankBalance).Scan(&user.CreatedAt)
	if err != nil {
		return nil, classify("create user", err)
	}
	return user, nil
}

// Update overwrites every mutable column of the row identified by user.Username.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`UPDATE users SET email = $2, password_hash = $3, date_of_birth = $4, bank_balance = $5
		 WHERE username = $1
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.DateOfBirth, user.BankBalance).Scan(&user.CreatedAt)
	if err != nil {
		return nil, classify("update user", err)
	}
	return user, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return classify("delete user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("delete user", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, classify("list users", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify("scan user", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list users", err)
	}
	return result, nil
}
