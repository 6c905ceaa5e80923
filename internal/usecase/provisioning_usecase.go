package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
)

// ProvisioningUseCase creates new accounts with a derived account number and a
// seeded ledger history.
type ProvisioningUseCase struct {
	accounts           AccountStore
	ledger             Ledger
	hasher             SecretHasher
	idGen              IDGenerator
	logger             zerolog.Logger
	secretDigits       int
	numberLength       int
	defaultSeed        decimal.Decimal
	derivationAttempts int
}

// ProvisioningConfig holds dependencies for account provisioning.
type ProvisioningConfig struct {
	Accounts           AccountStore
	Ledger             Ledger
	Hasher             SecretHasher
	IDGenerator        IDGenerator
	Logger             zerolog.Logger
	SecretDigits       int
	AccountNumberLength int
	DefaultSeedBalance decimal.Decimal
	DerivationAttempts int
}

// NewProvisioningUseCase creates a new ProvisioningUseCase.
func NewProvisioningUseCase(cfg ProvisioningConfig) *ProvisioningUseCase {
	if cfg.SecretDigits <= 0 {
		cfg.SecretDigits = domain.DefaultSecretDigits
	}

	if cfg.AccountNumberLength <= 0 {
		cfg.AccountNumberLength = 10
	}

	if cfg.DerivationAttempts <= 0 {
		cfg.DerivationAttempts = DefaultDerivationAttempts
	}

	return &ProvisioningUseCase{
		accounts:           cfg.Accounts,
		ledger:             cfg.Ledger,
		hasher:             cfg.Hasher,
		idGen:              cfg.IDGenerator,
		logger:             cfg.Logger,
		secretDigits:       cfg.SecretDigits,
		numberLength:       cfg.AccountNumberLength,
		defaultSeed:        cfg.DefaultSeedBalance,
		derivationAttempts: cfg.DerivationAttempts,
	}
}

// ProvisionInput represents input for provisioning an account.
type ProvisionInput struct {
	Identity    string
	DisplayName string
	Secret      string
	SeedBalance decimal.Decimal
}

// Provision creates the account and seeds one CREDIT entry of the seed
// balance so that replaying the ledger from zero reproduces the balance from
// creation onward. A zero seed produces no entry since the ledger rejects
// non-positive amounts.
func (uc *ProvisioningUseCase) Provision(ctx context.Context, input ProvisionInput) (*domain.Account, error) {
	input.Identity = strings.TrimSpace(input.Identity)

	if err := domain.ValidateIdentity(input.Identity); err != nil {
		return nil, err
	}

	if err := domain.ValidateDisplayName(input.DisplayName); err != nil {
		return nil, err
	}

	if err := domain.ValidateSecret(input.Secret, uc.secretDigits); err != nil {
		return nil, err
	}

	if err := domain.ValidateSeedBalance(input.SeedBalance); err != nil {
		return nil, err
	}

	secretHash, err := uc.hasher.Hash(input.Secret)
	if err != nil {
		return nil, err
	}

	account, err := uc.createWithDerivedNumber(ctx, input, secretHash)
	if err != nil {
		return nil, err
	}

	if input.SeedBalance.IsPositive() {
		seedEntry := &domain.Entry{
			ID:              uc.idGen.Generate(),
			AccountIdentity: account.Identity,
			Direction:       domain.DirectionCredit,
			Amount:          input.SeedBalance,
			BalanceAfter:    input.SeedBalance,
			Reference:       uc.idGen.Generate(),
			Description:     SeedEntryDescription,
			CreatedAt:       account.CreatedAt,
		}

		if _, err := uc.ledger.Append(ctx, seedEntry); err != nil {
			uc.logger.Error().
				Err(err).
				Str("identity", account.Identity).
				Msg("seed entry append failed; ledger replay will not cover this account")

			return nil, err
		}
	}

	return account, nil
}

// createWithDerivedNumber retries salted re-derivation on an account number
// collision up to the configured bound.
func (uc *ProvisioningUseCase) createWithDerivedNumber(ctx context.Context, input ProvisionInput, secretHash string) (*domain.Account, error) {
	now := time.Now().UTC()

	for salt := 0; salt < uc.derivationAttempts; salt++ {
		account := &domain.Account{
			Identity:      input.Identity,
			DisplayName:   strings.TrimSpace(input.DisplayName),
			AccountNumber: domain.DeriveAccountNumber(input.Identity, salt, uc.numberLength),
			Balance:       input.SeedBalance,
			SecretHash:    secretHash,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		err := uc.accounts.Create(ctx, account)
		if err == nil {
			return account, nil
		}

		if errors.Is(err, domain.ErrAccountNumberCollision) {
			uc.logger.Warn().
				Str("identity", input.Identity).
				Int("salt", salt+1).
				Msg("account number collision, re-deriving with salt")

			continue
		}

		return nil, err
	}

	return nil, domain.ErrAccountNumberCollision
}

// EnsureAccount is the explicit opt-in find-or-create used by first-login
// flows: it never hides provisioning inside authentication.
func (uc *ProvisioningUseCase) EnsureAccount(ctx context.Context, identity, displayName, secret string) (*domain.Account, error) {
	account, err := uc.accounts.Get(ctx, strings.TrimSpace(identity))
	if err == nil {
		return account, nil
	}

	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	return uc.Provision(ctx, ProvisionInput{
		Identity:    identity,
		DisplayName: displayName,
		Secret:      secret,
		SeedBalance: uc.defaultSeed,
	})
}
