// Package cryptox contains the password hashing primitives of authkeeper.
package cryptox

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMalformedHash means a stored digest is not a bcrypt digest at all.
	// It is an integrity problem of the store, not a credential mismatch.
	ErrMalformedHash = errors.New("malformed password hash")

	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrInvalidCost   = errors.New("invalid bcrypt cost")
)

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way digest of password.
	Hash(password string) (string, error)

	// Verify returns (true, nil) on match, (false, nil) on mismatch and
	// (false, ErrMalformedHash) when hash cannot be parsed.
	Verify(password, hash string) (bool, error)

	// DummyHash returns a valid digest of an unguessable password, used to
	// keep the cost of a failed lookup equal to that of a failed compare.
	DummyHash() string
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     string
}

// NewBcryptHasher returns a hasher using the given work factor.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d (want %d..%d)", ErrInvalidCost, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

func (h *BcryptHasher) DummyHash() string {
	h.dummyOnce.Do(func() {
		secret := fmt.Sprintf("%x", common.GenerateRandByteArray(24))
		b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
		if err != nil {
			panic(fmt.Sprintf("cryptox: dummy hash: %v", err))
		}
		h.dummy = string(b)
	})
	return h.dummy
}
