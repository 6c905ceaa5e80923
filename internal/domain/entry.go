package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction marks which side of a transfer an entry records.
type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

// IsValid checks if the direction is one of the two enumerated values.
func (d Direction) IsValid() bool {
	return d == DirectionDebit || d == DirectionCredit
}

// Entry is one immutable record of a balance change. Entries are append-only;
// once written they are never mutated or deleted.
type Entry struct {
	ID                       string
	AccountIdentity          string
	Direction                Direction
	Amount                   decimal.Decimal
	BalanceAfter             decimal.Decimal
	CounterpartyAccountNumber string
	CounterpartyName         string
	Reference                string
	Description              string
	CreatedAt                time.Time
}

// Validate checks entry invariants before append.
func (e *Entry) Validate() error {
	if e.AccountIdentity == "" {
		return fmt.Errorf("%w: missing account identity", ErrInvalidEntry)
	}

	if !e.Direction.IsValid() {
		return fmt.Errorf("%w: direction must be DEBIT or CREDIT", ErrInvalidEntry)
	}

	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidEntry)
	}

	return nil
}
