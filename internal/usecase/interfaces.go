package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
)

// AccountStore defines data access for accounts. CompareAndSetBalance is the
// sole sanctioned balance mutation path; callers retry on
// domain.ErrConcurrentModification.
type AccountStore interface {
	Create(ctx context.Context, account *domain.Account) error
	Get(ctx context.Context, identity string) (*domain.Account, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	CompareAndSetBalance(ctx context.Context, identity string, expected, updated decimal.Decimal) error
	RotateSecret(ctx context.Context, identity, secretHash string) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// Ledger defines the append-only transaction ledger. Append assigns ID and
// CreatedAt when unset; no update or delete operation exists by design.
type Ledger interface {
	Append(ctx context.Context, entry *domain.Entry) (string, error)
	// ListForAccount returns entries newest first; beforeID restarts the page
	// after the entry with that ID (empty means from the newest).
	ListForAccount(ctx context.Context, identity string, limit int, beforeID string) ([]*domain.Entry, error)
}

// SecretHasher derives and verifies one-way transaction secret credentials.
// Compare must be constant-time with respect to the secret.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Compare(secretHash, secret string) error
}

// IDGenerator generates unique, time-ordered IDs.
type IDGenerator interface {
	Generate() string
}

// Notifier is the notification collaborator invoked after a committed
// transfer. Its failure must never roll back the financial mutation.
type Notifier interface {
	Notify(ctx context.Context, notification domain.TransferNotification) error
}

// ReconciliationQueue receives credit halves that failed after their debit
// committed, for retry or manual reconciliation.
type ReconciliationQueue interface {
	Enqueue(ctx context.Context, credit *domain.PendingCredit) error
	DequeueBatch(ctx context.Context, max int) ([]*domain.PendingCredit, error)
}

// IdempotencyStore handles idempotency key storage for the API layer.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// SecretAttemptLimiter is the rate-limiting collaborator that throttles
// repeated invalid-secret attempts per identity. The core only reports
// outcomes; it never counts attempts itself.
type SecretAttemptLimiter interface {
	Allowed(ctx context.Context, identity string) (bool, error)
	RecordFailure(ctx context.Context, identity string) error
	Reset(ctx context.Context, identity string) error
}
