// Package mocks provides hand-maintained test doubles for the usecase
// interfaces. Each mock behaves as a minimal in-memory implementation unless
// a Func field overrides the method.
package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
)

// MockAccountStore is a mock implementation of usecase.AccountStore.
type MockAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc               func(ctx context.Context, account *domain.Account) error
	GetFunc                  func(ctx context.Context, identity string) (*domain.Account, error)
	GetByAccountNumberFunc   func(ctx context.Context, accountNumber string) (*domain.Account, error)
	CompareAndSetBalanceFunc func(ctx context.Context, identity string, expected, updated decimal.Decimal) error
	RotateSecretFunc         func(ctx context.Context, identity, secretHash string) error
	ListFunc                 func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountStore() *MockAccountStore {
	return &MockAccountStore{accounts: make(map[string]*domain.Account)}
}

func (m *MockAccountStore) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[account.Identity]; ok {
		return domain.ErrAccountExists
	}

	cp := *account
	m.accounts[account.Identity] = &cp

	return nil
}

func (m *MockAccountStore) Get(ctx context.Context, identity string) (*domain.Account, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, identity)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[identity]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	cp := *account

	return &cp, nil
}

func (m *MockAccountStore) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	if m.GetByAccountNumberFunc != nil {
		return m.GetByAccountNumberFunc(ctx, accountNumber)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, account := range m.accounts {
		if account.AccountNumber == accountNumber {
			cp := *account
			return &cp, nil
		}
	}

	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountStore) CompareAndSetBalance(ctx context.Context, identity string, expected, updated decimal.Decimal) error {
	if m.CompareAndSetBalanceFunc != nil {
		return m.CompareAndSetBalanceFunc(ctx, identity, expected, updated)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[identity]
	if !ok {
		return domain.ErrAccountNotFound
	}

	if !account.Balance.Equal(expected) {
		return domain.ErrConcurrentModification
	}

	account.Balance = updated

	return nil
}

func (m *MockAccountStore) RotateSecret(ctx context.Context, identity, secretHash string) error {
	if m.RotateSecretFunc != nil {
		return m.RotateSecretFunc(ctx, identity, secretHash)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[identity]
	if !ok {
		return domain.ErrAccountNotFound
	}

	account.SecretHash = secretHash

	return nil
}

func (m *MockAccountStore) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		cp := *account
		out = append(out, &cp)
	}

	return out, nil
}

// MockLedger is a mock implementation of usecase.Ledger.
type MockLedger struct {
	mu      sync.Mutex
	entries []*domain.Entry
	nextID  int

	AppendFunc         func(ctx context.Context, entry *domain.Entry) (string, error)
	ListForAccountFunc func(ctx context.Context, identity string, limit int, beforeID string) ([]*domain.Entry, error)
}

func NewMockLedger() *MockLedger {
	return &MockLedger{}
}

func (m *MockLedger) Append(ctx context.Context, entry *domain.Entry) (string, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}

	if err := entry.Validate(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("entry-%06d", m.nextID)
	}

	cp := *entry
	m.entries = append(m.entries, &cp)

	return cp.ID, nil
}

func (m *MockLedger) ListForAccount(ctx context.Context, identity string, limit int, beforeID string) ([]*domain.Entry, error) {
	if m.ListForAccountFunc != nil {
		return m.ListForAccountFunc(ctx, identity, limit, beforeID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Entry

	skipping := beforeID != ""
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		entry := m.entries[i]
		if entry.AccountIdentity != identity {
			continue
		}

		if skipping {
			if entry.ID == beforeID {
				skipping = false
			}

			continue
		}

		cp := *entry
		out = append(out, &cp)
	}

	return out, nil
}

// All returns every appended entry in append order.
func (m *MockLedger) All() []*domain.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Entry, len(m.entries))
	copy(out, m.entries)

	return out
}

// MockSecretHasher is a mock implementation of usecase.SecretHasher using a
// reversible prefix instead of a real KDF.
type MockSecretHasher struct {
	HashFunc    func(secret string) (string, error)
	CompareFunc func(secretHash, secret string) error
}

func NewMockSecretHasher() *MockSecretHasher {
	return &MockSecretHasher{}
}

func (m *MockSecretHasher) Hash(secret string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(secret)
	}

	return "hashed:" + secret, nil
}

func (m *MockSecretHasher) Compare(secretHash, secret string) error {
	if m.CompareFunc != nil {
		return m.CompareFunc(secretHash, secret)
	}

	if secretHash != "hashed:"+secret {
		return domain.ErrInvalidSecret
	}

	return nil
}

// MockIDGenerator is a mock implementation of usecase.IDGenerator producing
// sequential IDs.
type MockIDGenerator struct {
	mu   sync.Mutex
	next int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++

	return fmt.Sprintf("id-%06d", m.next)
}

// MockNotifier records notifications for assertions.
type MockNotifier struct {
	mu            sync.Mutex
	notifications []domain.TransferNotification

	NotifyFunc func(ctx context.Context, notification domain.TransferNotification) error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, notification domain.TransferNotification) error {
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, notification)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.notifications = append(m.notifications, notification)

	return nil
}

// Notifications returns recorded notifications.
func (m *MockNotifier) Notifications() []domain.TransferNotification {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.TransferNotification, len(m.notifications))
	copy(out, m.notifications)

	return out
}

// MockReconciliationQueue records pending credits for assertions.
type MockReconciliationQueue struct {
	mu      sync.Mutex
	pending []*domain.PendingCredit

	EnqueueFunc      func(ctx context.Context, credit *domain.PendingCredit) error
	DequeueBatchFunc func(ctx context.Context, max int) ([]*domain.PendingCredit, error)
}

func NewMockReconciliationQueue() *MockReconciliationQueue {
	return &MockReconciliationQueue{}
}

func (m *MockReconciliationQueue) Enqueue(ctx context.Context, credit *domain.PendingCredit) error {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, credit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = append(m.pending, credit)

	return nil
}

func (m *MockReconciliationQueue) DequeueBatch(ctx context.Context, max int) ([]*domain.PendingCredit, error) {
	if m.DequeueBatchFunc != nil {
		return m.DequeueBatchFunc(ctx, max)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if max > len(m.pending) {
		max = len(m.pending)
	}

	out := m.pending[:max]
	m.pending = m.pending[max:]

	return out, nil
}

// Pending returns the queued credits without dequeuing them.
func (m *MockReconciliationQueue) Pending() []*domain.PendingCredit {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.PendingCredit, len(m.pending))
	copy(out, m.pending)

	return out
}
