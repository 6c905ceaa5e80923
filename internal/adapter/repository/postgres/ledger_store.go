package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/iho/gobank/internal/domain"
)

// LedgerStore implements usecase.Ledger. Entries are insert-only; no UPDATE
// or DELETE statement exists in this package for the entries table.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

const appendEntrySQL = `
INSERT INTO entries (id, account_identity, direction, amount, balance_after,
                     counterparty_account_number, counterparty_name, reference, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
        GREATEST($10::timestamptz, COALESCE((SELECT max(created_at) FROM entries WHERE account_identity = $2), $10::timestamptz)))`

// Append validates and inserts an entry, assigning ID and CreatedAt when
// unset. The insert clamps created_at against the account's newest entry so
// the per-account sequence stays monotonic.
func (s *LedgerStore) Append(ctx context.Context, entry *domain.Entry) (string, error) {
	if err := entry.Validate(); err != nil {
		return "", err
	}

	id := entry.ID
	if id == "" {
		id = ulid.Make().String()
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, appendEntrySQL,
		id,
		entry.AccountIdentity,
		string(entry.Direction),
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.BalanceAfter),
		entry.CounterpartyAccountNumber,
		entry.CounterpartyName,
		entry.Reference,
		entry.Description,
		timeToPgTimestamptz(createdAt),
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

const listEntriesSQL = `
SELECT id, account_identity, direction, amount, balance_after,
       counterparty_account_number, counterparty_name, reference, description, created_at
FROM entries
WHERE account_identity = $1
  AND ($2 = '' OR id < $2)
ORDER BY created_at DESC, id DESC
LIMIT $3`

// ListForAccount returns entries newest first, paged by the beforeID cursor.
// IDs are ULIDs, so lexicographic comparison follows creation order.
func (s *LedgerStore) ListForAccount(ctx context.Context, identity string, limit int, beforeID string) ([]*domain.Entry, error) {
	rows, err := s.pool.Query(ctx, listEntriesSQL, identity, beforeID, int32(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry

	for rows.Next() {
		var (
			entry     domain.Entry
			direction string
			amount    pgtype.Numeric
			after     pgtype.Numeric
			createdAt pgtype.Timestamptz
		)

		err := rows.Scan(
			&entry.ID,
			&entry.AccountIdentity,
			&direction,
			&amount,
			&after,
			&entry.CounterpartyAccountNumber,
			&entry.CounterpartyName,
			&entry.Reference,
			&entry.Description,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		entry.Direction = domain.Direction(direction)
		entry.Amount = numericToDecimal(amount)
		entry.BalanceAfter = numericToDecimal(after)
		entry.CreatedAt = createdAt.Time

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
