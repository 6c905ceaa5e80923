package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
	"github.com/iho/gobank/internal/usecase/mocks"
)

func newProvisioningUseCase(accounts *mocks.MockAccountStore, ledger *mocks.MockLedger) *usecase.ProvisioningUseCase {
	return usecase.NewProvisioningUseCase(usecase.ProvisioningConfig{
		Accounts:           accounts,
		Ledger:             ledger,
		Hasher:             mocks.NewMockSecretHasher(),
		IDGenerator:        mocks.NewMockIDGenerator(),
		Logger:             zerolog.Nop(),
		DefaultSeedBalance: decimal.NewFromInt(1000),
	})
}

func TestProvisioningUseCase_Provision(t *testing.T) {
	tests := []struct {
		name      string
		input     usecase.ProvisionInput
		errorType error
	}{
		{
			name: "valid account",
			input: usecase.ProvisionInput{
				Identity:    "alice@example.com",
				DisplayName: "Alice",
				Secret:      "1234",
				SeedBalance: decimal.NewFromInt(1000000),
			},
		},
		{
			name: "empty identity",
			input: usecase.ProvisionInput{
				Identity:    "   ",
				DisplayName: "Alice",
				Secret:      "1234",
			},
			errorType: domain.ErrInvalidIdentity,
		},
		{
			name: "empty display name",
			input: usecase.ProvisionInput{
				Identity:    "alice@example.com",
				DisplayName: "",
				Secret:      "1234",
			},
			errorType: domain.ErrInvalidDisplayName,
		},
		{
			name: "secret too short",
			input: usecase.ProvisionInput{
				Identity:    "alice@example.com",
				DisplayName: "Alice",
				Secret:      "12",
			},
			errorType: domain.ErrInvalidSecret,
		},
		{
			name: "secret not numeric",
			input: usecase.ProvisionInput{
				Identity:    "alice@example.com",
				DisplayName: "Alice",
				Secret:      "12ab",
			},
			errorType: domain.ErrInvalidSecret,
		},
		{
			name: "negative seed",
			input: usecase.ProvisionInput{
				Identity:    "alice@example.com",
				DisplayName: "Alice",
				Secret:      "1234",
				SeedBalance: decimal.NewFromInt(-1),
			},
			errorType: domain.ErrNegativeSeed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := mocks.NewMockAccountStore()
			ledger := mocks.NewMockLedger()
			uc := newProvisioningUseCase(accounts, ledger)

			account, err := uc.Provision(context.Background(), tt.input)

			if tt.errorType != nil {
				if !errors.Is(err, tt.errorType) {
					t.Fatalf("expected error %v, got %v", tt.errorType, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(account.AccountNumber) != 10 {
				t.Errorf("account number length = %d, want 10", len(account.AccountNumber))
			}

			if account.SecretHash == tt.input.Secret || account.SecretHash == "" {
				t.Error("secret must be stored hashed")
			}

			if !account.Balance.Equal(tt.input.SeedBalance) {
				t.Errorf("balance = %s, want %s", account.Balance, tt.input.SeedBalance)
			}
		})
	}
}

func TestProvisioningUseCase_SeedEntry(t *testing.T) {
	accounts := mocks.NewMockAccountStore()
	ledger := mocks.NewMockLedger()
	uc := newProvisioningUseCase(accounts, ledger)

	_, err := uc.Provision(context.Background(), usecase.ProvisionInput{
		Identity:    "alice@example.com",
		DisplayName: "Alice",
		Secret:      "1234",
		SeedBalance: decimal.NewFromInt(1000000),
	})
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}

	entries := ledger.All()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one seed entry, got %d", len(entries))
	}

	seed := entries[0]
	if seed.Direction != domain.DirectionCredit {
		t.Errorf("seed entry direction = %s, want CREDIT", seed.Direction)
	}

	if !seed.Amount.Equal(decimal.NewFromInt(1000000)) || !seed.BalanceAfter.Equal(decimal.NewFromInt(1000000)) {
		t.Errorf("seed entry amount/balance = %s/%s, want 1000000/1000000", seed.Amount, seed.BalanceAfter)
	}
}

func TestProvisioningUseCase_ZeroSeedHasNoEntry(t *testing.T) {
	accounts := mocks.NewMockAccountStore()
	ledger := mocks.NewMockLedger()
	uc := newProvisioningUseCase(accounts, ledger)

	account, err := uc.Provision(context.Background(), usecase.ProvisionInput{
		Identity:    "bob@example.com",
		DisplayName: "Bob",
		Secret:      "4321",
		SeedBalance: decimal.Zero,
	})
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}

	if !account.Balance.IsZero() {
		t.Errorf("balance = %s, want 0", account.Balance)
	}

	if len(ledger.All()) != 0 {
		t.Error("a zero seed must not produce a ledger entry")
	}
}

func TestProvisioningUseCase_DeterministicAccountNumber(t *testing.T) {
	ctx := context.Background()

	first, err := newProvisioningUseCase(mocks.NewMockAccountStore(), mocks.NewMockLedger()).
		Provision(ctx, usecase.ProvisionInput{Identity: "carol@example.com", DisplayName: "Carol", Secret: "1234"})
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}

	second, err := newProvisioningUseCase(mocks.NewMockAccountStore(), mocks.NewMockLedger()).
		Provision(ctx, usecase.ProvisionInput{Identity: "carol@example.com", DisplayName: "Carol", Secret: "1234"})
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}

	if first.AccountNumber != second.AccountNumber {
		t.Errorf("same identity must derive the same number: %s vs %s",
			first.AccountNumber, second.AccountNumber)
	}
}

func TestProvisioningUseCase_CollisionRetriesWithSalt(t *testing.T) {
	accounts := mocks.NewMockAccountStore()
	ledger := mocks.NewMockLedger()
	uc := newProvisioningUseCase(accounts, ledger)

	collisions := 2
	accounts.CreateFunc = func(ctx context.Context, account *domain.Account) error {
		if collisions > 0 {
			collisions--
			return domain.ErrAccountNumberCollision
		}

		accounts.CreateFunc = nil

		return accounts.Create(ctx, account)
	}

	account, err := uc.Provision(context.Background(), usecase.ProvisionInput{
		Identity:    "dave@example.com",
		DisplayName: "Dave",
		Secret:      "1234",
	})
	if err != nil {
		t.Fatalf("provision failed after salted retries: %v", err)
	}

	salted := domain.DeriveAccountNumber("dave@example.com", 2, 10)
	if account.AccountNumber != salted {
		t.Errorf("account number = %s, want salted derivation %s", account.AccountNumber, salted)
	}
}

func TestProvisioningUseCase_CollisionExhaustion(t *testing.T) {
	accounts := mocks.NewMockAccountStore()
	accounts.CreateFunc = func(ctx context.Context, account *domain.Account) error {
		return domain.ErrAccountNumberCollision
	}

	uc := newProvisioningUseCase(accounts, mocks.NewMockLedger())

	_, err := uc.Provision(context.Background(), usecase.ProvisionInput{
		Identity:    "eve@example.com",
		DisplayName: "Eve",
		Secret:      "1234",
	})

	if !errors.Is(err, domain.ErrAccountNumberCollision) {
		t.Fatalf("expected ErrAccountNumberCollision after exhaustion, got %v", err)
	}
}

func TestProvisioningUseCase_EnsureAccount(t *testing.T) {
	accounts := mocks.NewMockAccountStore()
	ledger := mocks.NewMockLedger()
	uc := newProvisioningUseCase(accounts, ledger)

	ctx := context.Background()

	created, err := uc.EnsureAccount(ctx, "frank@example.com", "Frank", "1234")
	if err != nil {
		t.Fatalf("ensure (create) failed: %v", err)
	}

	if !created.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("default seed balance = %s, want 1000", created.Balance)
	}

	again, err := uc.EnsureAccount(ctx, "frank@example.com", "Other Name", "9999")
	if err != nil {
		t.Fatalf("ensure (existing) failed: %v", err)
	}

	if again.AccountNumber != created.AccountNumber || again.DisplayName != "Frank" {
		t.Error("ensure must return the existing account untouched")
	}

	if len(ledger.All()) != 1 {
		t.Errorf("expected one seed entry total, got %d", len(ledger.All()))
	}
}
