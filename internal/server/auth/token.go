// Package auth implements the token codec (signed JWT access and refresh
// tokens) and the CSRF double-submit guard.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind tells access tokens and refresh tokens apart.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// Decode failures. Every one of them matches common.ErrInvalidToken; callers
// outside this package should not branch on the specific reason.
var (
	ErrMalformedToken = fmt.Errorf("%w: malformed", common.ErrInvalidToken)
	ErrBadSignature   = fmt.Errorf("%w: bad signature", common.ErrInvalidToken)
	ErrTokenExpired   = fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
	ErrWrongTokenType = fmt.Errorf("%w: wrong token type", common.ErrInvalidToken)
	ErrMissingSubject = fmt.Errorf("%w: missing subject", common.ErrInvalidToken)
)

var signingMethod = jwt.SigningMethodHS256

// Claims is the signed payload: sub, exp and jti from the registered set
// plus the token kind.
type Claims struct {
	Type TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is what login and refresh hand out.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenCodec mints and decodes tokens. It is safe for concurrent use; the
// secret is never modified after construction.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenCodec(secret []byte, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token codec: empty secret")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token codec: token lifetimes must be positive")
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenCodec{secret: key, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}, nil
}

// TTL returns the configured lifetime of kind.
func (c *TokenCodec) TTL(kind TokenKind) time.Duration {
	if kind == RefreshToken {
		return c.refreshTTL
	}
	return c.accessTTL
}

// Mint signs a new token for subject expiring at now + TTL(kind).
func (c *TokenCodec) Mint(subject string, kind TokenKind, now time.Time) (string, error) {
	if subject == "" {
		return "", ErrMissingSubject
	}
	if kind != AccessToken && kind != RefreshToken {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}

	claims := Claims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL(kind))),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	s, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return s, nil
}

// MintPair mints an access and a refresh token for subject at now.
func (c *TokenCodec) MintPair(subject string, now time.Time) (TokenPair, error) {
	access, err := c.Mint(subject, AccessToken, now)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := c.Mint(subject, RefreshToken, now)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Decode validates token against the current time.
func (c *TokenCodec) Decode(token string, kind TokenKind) (*Claims, error) {
	return c.DecodeAt(token, kind, c.now())
}

// DecodeAt verifies algorithm, signature, expiry (a token is expired once
// at >= exp), kind and subject, in that order.
func (c *TokenCodec) DecodeAt(token string, kind TokenKind, at time.Time) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return at }),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	if claims.Type != kind {
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w (%v)", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return fmt.Errorf("%w (%v)", ErrMalformedToken, err)
	}
}
