package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// AccountResponse represents an account in API responses. The secret hash is
// never exposed.
type AccountResponse struct {
	Identity      string          `json:"identity"`
	DisplayName   string          `json:"display_name"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		Identity:      a.Identity,
		DisplayName:   a.DisplayName,
		AccountNumber: a.AccountNumber,
		Balance:       a.Balance,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// CounterpartyResponse is the reduced account view returned for destination
// lookups before a transfer is confirmed.
type CounterpartyResponse struct {
	DisplayName   string `json:"display_name"`
	AccountNumber string `json:"account_number"`
}

// CounterpartyFromDomain converts domain account to a counterparty response.
func CounterpartyFromDomain(a *domain.Account) *CounterpartyResponse {
	return &CounterpartyResponse{
		DisplayName:   a.DisplayName,
		AccountNumber: a.AccountNumber,
	}
}

// TransferResponse represents a committed transfer in API responses.
type TransferResponse struct {
	Reference  string          `json:"reference"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// TransferFromResult converts a use case transfer result to response.
func TransferFromResult(r *usecase.TransferResult) *TransferResponse {
	return &TransferResponse{
		Reference:  r.Reference,
		NewBalance: r.NewBalance,
	}
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID                        string          `json:"id"`
	Direction                 domain.Direction `json:"direction"`
	Amount                    decimal.Decimal `json:"amount"`
	BalanceAfter              decimal.Decimal `json:"balance_after"`
	CounterpartyAccountNumber string          `json:"counterparty_account_number,omitempty"`
	CounterpartyName          string          `json:"counterparty_name,omitempty"`
	Reference                 string          `json:"reference,omitempty"`
	Description               string          `json:"description,omitempty"`
	CreatedAt                 time.Time       `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:                        e.ID,
		Direction:                 e.Direction,
		Amount:                    e.Amount,
		BalanceAfter:              e.BalanceAfter,
		CounterpartyAccountNumber: e.CounterpartyAccountNumber,
		CounterpartyName:          e.CounterpartyName,
		Reference:                 e.Reference,
		Description:               e.Description,
		CreatedAt:                 e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// VerificationResponse represents a ledger replay verification result.
type VerificationResponse struct {
	Identity      string          `json:"identity"`
	StoreBalance  decimal.Decimal `json:"store_balance"`
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
	EntryCount    int             `json:"entry_count"`
	Consistent    bool            `json:"consistent"`
	CheckedAt     time.Time       `json:"checked_at"`
}

// VerificationFromResult converts a use case verification result to response.
func VerificationFromResult(v *usecase.VerificationResult) *VerificationResponse {
	return &VerificationResponse{
		Identity:      v.Identity,
		StoreBalance:  v.StoreBalance,
		LedgerBalance: v.LedgerBalance,
		EntryCount:    v.EntryCount,
		Consistent:    v.Consistent,
		CheckedAt:     v.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
