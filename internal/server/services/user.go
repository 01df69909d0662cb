package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/authkeeper/internal/server/validation"
	"github.com/dmitrijs2005/authkeeper/internal/timex"
	"github.com/shopspring/decimal"
)

var (
	ErrUsernameTaken = fmt.Errorf("%w: username is already registered", common.ErrorAlreadyExists)
	ErrEmailTaken    = fmt.Errorf("%w: email is already registered", common.ErrorAlreadyExists)
)

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DateOfBirth *timex.Date
}

// UpdateInput carries the optional profile changes; nil fields stay as they are.
type UpdateInput struct {
	Email       *string
	Password    *string
	DateOfBirth *timex.Date
}

// UserInfo is a user plus the values derived from its date of birth.
type UserInfo struct {
	User    *models.User
	Age     *int
	IsAdult bool
}

// UserService handles registration and profile management.
type UserService struct {
	store
	hasher cryptox.PasswordHasher
	log    logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher cryptox.PasswordHasher, log logging.Logger) *UserService {
	return &UserService{
		store:  store{db: db, repomanager: m, now: time.Now},
		hasher: hasher,
		log:    log.With("module", "user_service"),
	}
}

// Register checks username and email availability first, then the policy
// rules, then creates the account with a zero balance.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	repo := s.users()

	if err := s.ensureFree(ctx, repo.GetByUsername, in.Username, ErrUsernameTaken); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, repo.GetByEmail, in.Email, ErrEmailTaken); err != nil {
		return nil, err
	}

	violations := validation.ValidateRegistration(validation.RegistrationInput{
		Username:    in.Username,
		Email:       in.Email,
		Password:    in.Password,
		DateOfBirth: in.DateOfBirth,
	}, s.today())
	if err := common.NewValidationError(violations); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	user, err := repo.Create(ctx, &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		DateOfBirth:  in.DateOfBirth,
		BankBalance:  decimal.Zero,
	})
	switch {
	case errors.Is(err, common.ErrorAlreadyExists):
		// lost a race with a concurrent registration
		return nil, err
	case err != nil:
		s.log.Error(ctx, "create user failed", "username", in.Username, "error", err)
		return nil, unavailable(err)
	}

	s.log.Info(ctx, "user registered", "username", user.Username)
	return user, nil
}

func (s *UserService) ensureFree(ctx context.Context, get func(context.Context, string) (*models.User, error), key string, taken error) error {
	_, err := get(ctx, key)
	switch {
	case err == nil:
		return taken
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		s.log.Error(ctx, "user lookup failed", "error", err)
		return unavailable(err)
	}
}

// Get returns common.ErrorNotFound for an unknown username.
func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, unavailable(err)
	}
	return user, nil
}

// Info is Get plus age and adulthood as of today.
func (s *UserService) Info(ctx context.Context, username string) (*UserInfo, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.info(user), nil
}

func (s *UserService) info(user *models.User) *UserInfo {
	today := s.today()
	return &UserInfo{User: user, Age: user.Age(today), IsAdult: user.IsAdult(today)}
}

// Update validates each provided field independently and applies all of
// them in one transaction.
func (s *UserService) Update(ctx context.Context, username string, in UpdateInput) (*UserInfo, error) {
	var violations []string
	if in.Email != nil {
		violations = append(violations, validation.ValidateEmail(*in.Email)...)
	}
	if in.Password != nil {
		violations = append(violations, validation.ValidatePassword(*in.Password)...)
	}
	if in.DateOfBirth != nil {
		violations = append(violations, validation.ValidateDateOfBirth(*in.DateOfBirth, s.today())...)
	}
	if err := common.NewValidationError(violations); err != nil {
		return nil, err
	}

	var hash string
	if in.Password != nil {
		h, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
		}
		hash = h
	}

	var updated *models.User
	err := s.inTx(ctx, func(ctx context.Context, repo users.Repository) error {
		user, err := repo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}

		if in.Email != nil && *in.Email != user.Email {
			owner, err := repo.GetByEmail(ctx, *in.Email)
			switch {
			case err == nil && owner.Username != username:
				return ErrEmailTaken
			case err != nil && !errors.Is(err, common.ErrorNotFound):
				return err
			}
			user.Email = *in.Email
		}
		if in.Password != nil {
			user.PasswordHash = hash
		}
		if in.DateOfBirth != nil {
			dob := *in.DateOfBirth
			user.DateOfBirth = &dob
		}

		updated, err = repo.Update(ctx, user)
		if err != nil {
			return err
		}
		dbx.AfterCommit(ctx, func(ctx context.Context) { s.evict(ctx, username) })
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrorAlreadyExists):
		return nil, err
	default:
		// the commit itself may have failed after being applied
		s.evict(ctx, username)
		s.log.Error(ctx, "update user failed", "username", username, "error", err)
		return nil, unavailable(err)
	}

	s.log.Info(ctx, "user updated", "username", username)
	return s.info(updated), nil
}

// Delete removes the account. Outstanding tokens stop resolving to a user.
func (s *UserService) Delete(ctx context.Context, username string) error {
	err := s.users().Delete(ctx, username)
	switch {
	case err == nil:
		s.log.Info(ctx, "user deleted", "username", username)
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return err
	default:
		s.log.Error(ctx, "delete user failed", "username", username, "error", err)
		return unavailable(err)
	}
}
