package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
)

// LedgerUseCase handles ledger reads and replay verification.
type LedgerUseCase struct {
	accounts AccountStore
	ledger   Ledger
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(accounts AccountStore, ledger Ledger) *LedgerUseCase {
	return &LedgerUseCase{
		accounts: accounts,
		ledger:   ledger,
	}
}

// ListEntriesInput represents input for listing entries.
type ListEntriesInput struct {
	Identity string
	Limit    int
	BeforeID string
}

// ListEntries lists ledger entries for an account, newest first. Callers page
// by passing the last seen entry ID as BeforeID.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.Entry, error) {
	if input.Limit <= 0 {
		input.Limit = DefaultListLimit
	}

	if input.Limit > MaxListLimit {
		input.Limit = MaxListLimit
	}

	return uc.ledger.ListForAccount(ctx, input.Identity, input.Limit, input.BeforeID)
}

// VerificationResult reports whether replaying an account's entries from zero
// reproduces its stored balance.
type VerificationResult struct {
	Identity      string
	StoreBalance  decimal.Decimal
	LedgerBalance decimal.Decimal
	EntryCount    int
	Consistent    bool
	CheckedAt     time.Time
}

// VerifyAccount replays the full entry sequence for an account. The seed
// balance is itself a CREDIT entry, so the replay starts from zero.
func (uc *LedgerUseCase) VerifyAccount(ctx context.Context, identity string) (*VerificationResult, error) {
	account, err := uc.accounts.Get(ctx, identity)
	if err != nil {
		return nil, err
	}

	entries, err := uc.allEntries(ctx, identity)
	if err != nil {
		return nil, err
	}

	replayed := decimal.Zero
	consistent := true

	// entries are newest first; walk them oldest first.
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]

		switch entry.Direction {
		case domain.DirectionCredit:
			replayed = replayed.Add(entry.Amount)
		case domain.DirectionDebit:
			replayed = replayed.Sub(entry.Amount)
		}

		if !replayed.Equal(entry.BalanceAfter) {
			consistent = false
		}
	}

	if !replayed.Equal(account.Balance) {
		consistent = false
	}

	return &VerificationResult{
		Identity:      identity,
		StoreBalance:  account.Balance,
		LedgerBalance: replayed,
		EntryCount:    len(entries),
		Consistent:    consistent,
		CheckedAt:     time.Now().UTC(),
	}, nil
}

func (uc *LedgerUseCase) allEntries(ctx context.Context, identity string) ([]*domain.Entry, error) {
	var all []*domain.Entry

	beforeID := ""

	for {
		page, err := uc.ledger.ListForAccount(ctx, identity, MaxListLimit, beforeID)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)

		if len(page) < MaxListLimit {
			return all, nil
		}

		beforeID = page[len(page)-1].ID
	}
}
