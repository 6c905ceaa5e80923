// Package secret implements the transaction-secret hasher.
package secret

import (
	"github.com/iho/gobank/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher implements usecase.SecretHasher with bcrypt. The comparison is
// constant-time with respect to the secret.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the given cost; zero means
// bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &BcryptHasher{cost: cost}
}

// Hash derives the one-way credential stored for an account.
func (h *BcryptHasher) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Compare verifies a clear-text secret against a stored hash.
func (h *BcryptHasher) Compare(secretHash, secret string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(secret)); err != nil {
		return domain.ErrInvalidSecret
	}

	return nil
}
