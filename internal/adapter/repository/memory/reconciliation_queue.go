package memory

import (
	"context"
	"sync"

	"github.com/iho/gobank/internal/domain"
)

// ReconciliationQueue implements usecase.ReconciliationQueue as a mutex-backed
// FIFO. The reconciler worker drains it in batches.
type ReconciliationQueue struct {
	mu      sync.Mutex
	pending []*domain.PendingCredit
}

// NewReconciliationQueue creates an empty ReconciliationQueue.
func NewReconciliationQueue() *ReconciliationQueue {
	return &ReconciliationQueue{}
}

// Enqueue appends a pending credit.
func (q *ReconciliationQueue) Enqueue(ctx context.Context, credit *domain.PendingCredit) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	cp := *credit
	q.pending = append(q.pending, &cp)

	return nil
}

// DequeueBatch removes and returns up to max pending credits, oldest first.
func (q *ReconciliationQueue) DequeueBatch(ctx context.Context, max int) ([]*domain.PendingCredit, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if max <= 0 || max > len(q.pending) {
		max = len(q.pending)
	}

	out := q.pending[:max]
	q.pending = append([]*domain.PendingCredit(nil), q.pending[max:]...)

	return out, nil
}

// Len reports the number of queued credits.
func (q *ReconciliationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}
