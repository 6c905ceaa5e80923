package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/usecase"
)

// ProvisionAccountRequest represents a request to provision an account.
type ProvisionAccountRequest struct {
	DisplayName string          `json:"display_name"`
	Secret      string          `json:"secret"`
	SeedBalance decimal.Decimal `json:"seed_balance"`
}

// ToUseCaseInput converts to use case input for the given identity.
func (r *ProvisionAccountRequest) ToUseCaseInput(identity string) usecase.ProvisionInput {
	return usecase.ProvisionInput{
		Identity:    identity,
		DisplayName: r.DisplayName,
		Secret:      r.Secret,
		SeedBalance: r.SeedBalance,
	}
}

// EnsureAccountRequest represents an idempotent provisioning request: the
// account is created on first call and returned as-is afterwards.
type EnsureAccountRequest struct {
	DisplayName string `json:"display_name"`
	Secret      string `json:"secret"`
}

// CreateTransferRequest represents a request to create a transfer.
type CreateTransferRequest struct {
	ToAccountNumber string          `json:"to_account_number"`
	ToName          string          `json:"to_name"`
	Amount          decimal.Decimal `json:"amount"`
	Secret          string          `json:"secret"`
	Description     string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input for the given sender identity.
func (r *CreateTransferRequest) ToUseCaseInput(identity string) usecase.TransferInput {
	return usecase.TransferInput{
		FromIdentity:    identity,
		Secret:          r.Secret,
		ToAccountNumber: r.ToAccountNumber,
		ToName:          r.ToName,
		Amount:          r.Amount,
		Description:     r.Description,
	}
}

// RotateSecretRequest represents a request to rotate the transaction secret.
type RotateSecretRequest struct {
	NewSecret string `json:"new_secret"`
}
