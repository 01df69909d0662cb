package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// Session is what a successful login or refresh hands to the client.
type Session struct {
	AccessToken  string
	RefreshToken string
	CSRFToken    string
	TokenType    string
}

// AuthService moves a client between anonymous and authenticated:
//   - Login: credentials to a fresh token pair and CSRF token
//   - Refresh: refresh token to a fresh token pair and CSRF token
//   - Logout: always succeeds
type AuthService struct {
	store
	codec  *auth.TokenCodec
	hasher cryptox.PasswordHasher
	log    logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.TokenCodec,
	hasher cryptox.PasswordHasher, log logging.Logger) *AuthService {
	return &AuthService{
		store:  store{db: db, repomanager: m, now: time.Now},
		codec:  codec,
		hasher: hasher,
		log:    log.With("module", "auth_service"),
	}
}

// Login verifies username and password. An unknown user, a wrong password
// and a corrupt stored hash all yield common.ErrorUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users().GetByUsername(ctx, username)
	if errors.Is(err, common.ErrorNotFound) {
		// burn the same bcrypt work as a real compare
		_, _ = s.hasher.Verify(password, s.hasher.DummyHash())
		s.log.Info(ctx, "login rejected", "username", username, "reason", "unknown user")
		return nil, common.ErrorUnauthorized
	}
	if err != nil {
		s.log.Error(ctx, "user lookup failed", "username", username, "error", err)
		return nil, unavailable(err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Error(ctx, "stored password hash is unusable", "username", username, "error", err)
		return nil, common.ErrorUnauthorized
	}
	if !ok {
		s.log.Info(ctx, "login rejected", "username", username, "reason", "password mismatch")
		return nil, common.ErrorUnauthorized
	}

	session, err := s.issue(user.Username)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user logged in", "username", user.Username)
	return session, nil
}

// Refresh exchanges a valid refresh token for a new session. The presented
// token stays valid until its own expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.codec.DecodeAt(refreshToken, auth.RefreshToken, s.now())
	if err != nil {
		s.log.Debug(ctx, "refresh token rejected", "error", err)
		return nil, common.ErrRefreshTokenInvalid
	}

	user, err := s.users().GetByUsername(ctx, claims.Subject)
	if errors.Is(err, common.ErrorNotFound) {
		s.log.Info(ctx, "refresh for deleted user", "username", claims.Subject)
		return nil, common.ErrRefreshTokenInvalid
	}
	if err != nil {
		s.log.Error(ctx, "user lookup failed", "username", claims.Subject, "error", err)
		return nil, unavailable(err)
	}

	session, err := s.issue(user.Username)
	if err != nil {
		return nil, err
	}
	s.log.Debug(ctx, "session refreshed", "username", user.Username)
	return session, nil
}

// Logout only records the event. Clearing the cookies is up to the caller.
//
// TODO: once a revocation store exists, deny-list the refresh token's jti
// until its exp so a captured token stops working after logout.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if claims, err := s.codec.DecodeAt(refreshToken, auth.RefreshToken, s.now()); err == nil {
		s.log.Info(ctx, "user logged out", "username", claims.Subject)
		return nil
	}
	s.log.Info(ctx, "anonymous logout")
	return nil
}

// VerifyCSRF checks the double-submit pair of a state-changing request.
func (s *AuthService) VerifyCSRF(cookie, header string) bool {
	return auth.VerifyCSRFToken(cookie, header)
}

func (s *AuthService) issue(username string) (*Session, error) {
	pair, err := s.codec.MintPair(username, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	csrf, err := auth.GenerateCSRFToken()
	if err != nil {
		return nil, fmt.Errorf("%w: csrf token: %w", common.ErrorInternal, err)
	}
	return &Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		CSRFToken:    csrf,
		TokenType:    common.TokenTypeBearer,
	}, nil
}
