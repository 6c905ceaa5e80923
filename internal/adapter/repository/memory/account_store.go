// Package memory provides in-memory implementations of the account store and
// ledger. They carry the same concurrency contract as the postgres adapters
// and back the test suite and the memory server mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
)

// AccountStore implements usecase.AccountStore with an identity-keyed map and
// an account-number secondary index. Balance mutation goes through
// CompareAndSetBalance only.
type AccountStore struct {
	mu         sync.RWMutex
	byIdentity map[string]*domain.Account
	byNumber   map[string]string
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		byIdentity: make(map[string]*domain.Account),
		byNumber:   make(map[string]string),
	}
}

// Create stores a new account. The identity and account number must both be
// unused.
func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byIdentity[account.Identity]; ok {
		return domain.ErrAccountExists
	}

	if _, ok := s.byNumber[account.AccountNumber]; ok {
		return domain.ErrAccountNumberCollision
	}

	cp := *account
	s.byIdentity[account.Identity] = &cp
	s.byNumber[account.AccountNumber] = account.Identity

	return nil
}

// Get retrieves an account snapshot by identity.
func (s *AccountStore) Get(ctx context.Context, identity string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byIdentity[identity]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	cp := *account

	return &cp, nil
}

// GetByAccountNumber retrieves an account snapshot by account number.
func (s *AccountStore) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byNumber[accountNumber]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	cp := *s.byIdentity[identity]

	return &cp, nil
}

// CompareAndSetBalance sets the balance to updated only if the current value
// equals expected. Two writers racing on the same account see exactly one
// winner; the loser gets ErrConcurrentModification and re-reads.
func (s *AccountStore) CompareAndSetBalance(ctx context.Context, identity string, expected, updated decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byIdentity[identity]
	if !ok {
		return domain.ErrAccountNotFound
	}

	if !account.Balance.Equal(expected) {
		return domain.ErrConcurrentModification
	}

	account.Balance = updated
	account.UpdatedAt = time.Now().UTC()

	return nil
}

// RotateSecret replaces the stored secret hash.
func (s *AccountStore) RotateSecret(ctx context.Context, identity, secretHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byIdentity[identity]
	if !ok {
		return domain.ErrAccountNotFound
	}

	account.SecretHash = secretHash
	account.UpdatedAt = time.Now().UTC()

	return nil
}

// List returns account snapshots ordered by identity.
func (s *AccountStore) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identities := make([]string, 0, len(s.byIdentity))
	for identity := range s.byIdentity {
		identities = append(identities, identity)
	}

	sort.Strings(identities)

	if offset >= len(identities) {
		return nil, nil
	}

	identities = identities[offset:]
	if limit > 0 && limit < len(identities) {
		identities = identities[:limit]
	}

	out := make([]*domain.Account, 0, len(identities))
	for _, identity := range identities {
		cp := *s.byIdentity[identity]
		out = append(out, &cp)
	}

	return out, nil
}
