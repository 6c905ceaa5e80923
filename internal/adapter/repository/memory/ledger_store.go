package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/iho/gobank/internal/domain"
)

// LedgerStore implements usecase.Ledger as per-account append-only slices.
// Appends to different accounts never contend beyond the map lock.
type LedgerStore struct {
	mu      sync.Mutex
	entries map[string][]*domain.Entry
	lastAt  map[string]time.Time
}

// NewLedgerStore creates an empty LedgerStore.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		entries: make(map[string][]*domain.Entry),
		lastAt:  make(map[string]time.Time),
	}
}

// Append validates and stores an entry, assigning ID and CreatedAt when
// unset. CreatedAt is clamped so timestamps within one account's sequence
// never decrease.
func (s *LedgerStore) Append(ctx context.Context, entry *domain.Entry) (string, error) {
	if err := entry.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry

	if cp.ID == "" {
		cp.ID = ulid.Make().String()
	}

	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}

	if last, ok := s.lastAt[cp.AccountIdentity]; ok && cp.CreatedAt.Before(last) {
		cp.CreatedAt = last
	}

	s.lastAt[cp.AccountIdentity] = cp.CreatedAt
	s.entries[cp.AccountIdentity] = append(s.entries[cp.AccountIdentity], &cp)

	return cp.ID, nil
}

// ListForAccount returns entries newest first. When beforeID is set, the page
// starts after the entry carrying that ID, which makes paging restartable.
func (s *LedgerStore) ListForAccount(ctx context.Context, identity string, limit int, beforeID string) ([]*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sequence := s.entries[identity]

	var out []*domain.Entry

	skipping := beforeID != ""
	for i := len(sequence) - 1; i >= 0 && len(out) < limit; i-- {
		entry := sequence[i]

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
