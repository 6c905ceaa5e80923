// Package postgres implements the account store and ledger on PostgreSQL via
// pgx. The compare-and-set contract is realized as a conditional UPDATE on
// the previously read balance, so no row lock outlives a single statement.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
)

const pgErrUniqueViolation = "23505"

// AccountStore implements usecase.AccountStore.
type AccountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

const createAccountSQL = `
INSERT INTO accounts (identity, display_name, account_number, balance, secret_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Create inserts a new account. Unique violations are mapped to the domain
// error matching the violated constraint.
func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	_, err := s.pool.Exec(ctx, createAccountSQL,
		account.Identity,
		account.DisplayName,
		account.AccountNumber,
		decimalToNumeric(account.Balance),
		account.SecretHash,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			if pgErr.ConstraintName == "accounts_account_number_key" {
				return domain.ErrAccountNumberCollision
			}

			return domain.ErrAccountExists
		}

		return err
	}

	return nil
}

const getAccountSQL = `
SELECT identity, display_name, account_number, balance, secret_hash, created_at, updated_at
FROM accounts
WHERE identity = $1`

// Get retrieves an account by identity.
func (s *AccountStore) Get(ctx context.Context, identity string) (*domain.Account, error) {
	return s.scanAccount(s.pool.QueryRow(ctx, getAccountSQL, identity))
}

const getAccountByNumberSQL = `
SELECT identity, display_name, account_number, balance, secret_hash, created_at, updated_at
FROM accounts
WHERE account_number = $1`

// GetByAccountNumber retrieves an account by the account number index.
func (s *AccountStore) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	return s.scanAccount(s.pool.QueryRow(ctx, getAccountByNumberSQL, accountNumber))
}

const casBalanceSQL = `
UPDATE accounts
SET balance = $3, updated_at = $4
WHERE identity = $1 AND balance = $2`

// CompareAndSetBalance updates the balance only when it still equals
// expected. A zero-row update on an existing account means another writer got
// there first.
func (s *AccountStore) CompareAndSetBalance(ctx context.Context, identity string, expected, updated decimal.Decimal) error {
	tag, err := s.pool.Exec(ctx, casBalanceSQL,
		identity,
		decimalToNumeric(expected),
		decimalToNumeric(updated),
		timeToPgTimestamptz(time.Now().UTC()),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, err := s.Get(ctx, identity); err != nil {
		return err
	}

	return domain.ErrConcurrentModification
}

const rotateSecretSQL = `
UPDATE accounts
SET secret_hash = $2, updated_at = $3
WHERE identity = $1`

// RotateSecret replaces the stored secret hash.
func (s *AccountStore) RotateSecret(ctx context.Context, identity, secretHash string) error {
	tag, err := s.pool.Exec(ctx, rotateSecretSQL,
		identity,
		secretHash,
		timeToPgTimestamptz(time.Now().UTC()),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

const listAccountsSQL = `
SELECT identity, display_name, account_number, balance, secret_hash, created_at, updated_at
FROM accounts
ORDER BY identity
LIMIT $1 OFFSET $2`

// List returns accounts ordered by identity.
func (s *AccountStore) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := s.pool.Query(ctx, listAccountsSQL, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account

	for rows.Next() {
		account, err := s.scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *AccountStore) scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		account   domain.Account
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&account.Identity,
		&account.DisplayName,
		&account.AccountNumber,
		&balance,
		&account.SecretHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	account.Balance = numericToDecimal(balance)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
