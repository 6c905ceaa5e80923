package usecase

import (
	"context"

	"github.com/iho/gobank/internal/domain"
)

// AccountUseCase handles account lookup and secret rotation.
type AccountUseCase struct {
	accounts     AccountStore
	hasher       SecretHasher
	secretDigits int
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accounts AccountStore, hasher SecretHasher, secretDigits int) *AccountUseCase {
	if secretDigits <= 0 {
		secretDigits = domain.DefaultSecretDigits
	}

	return &AccountUseCase{
		accounts:     accounts,
		hasher:       hasher,
		secretDigits: secretDigits,
	}
}

// GetAccount retrieves an account by identity.
func (uc *AccountUseCase) GetAccount(ctx context.Context, identity string) (*domain.Account, error) {
	return uc.accounts.Get(ctx, identity)
}

// GetByAccountNumber retrieves an account by its derived account number.
func (uc *AccountUseCase) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	return uc.accounts.GetByAccountNumber(ctx, accountNumber)
}

// ListAccounts pages through all accounts for operator tooling. The limit is
// clamped to the ledger pagination bounds; a negative offset reads from the
// start.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	if offset < 0 {
		offset = 0
	}

	return uc.accounts.List(ctx, limit, offset)
}

// RotateSecret replaces the transaction secret after validating the new
// secret against the configured format.
func (uc *AccountUseCase) RotateSecret(ctx context.Context, identity, newSecret string) error {
	if err := domain.ValidateSecret(newSecret, uc.secretDigits); err != nil {
		return err
	}

	secretHash, err := uc.hasher.Hash(newSecret)
	if err != nil {
		return err
	}

	return uc.accounts.RotateSecret(ctx, identity, secretHash)
}
