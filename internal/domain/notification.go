package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferNotification is the payload handed to the notification collaborator
// after a transfer has committed. Dispatch failures are logged, never
// propagated as transfer failures.
type TransferNotification struct {
	Reference           string
	AccountIdentity     string
	Direction           Direction
	Amount              decimal.Decimal
	BalanceAfter        decimal.Decimal
	CounterpartyName    string
	CounterpartyAccount string
	Description         string
	Timestamp           time.Time
}

// PendingCredit records the credit half of a transfer whose debit committed
// but whose credit could not be applied. It carries enough detail for manual
// or automated reconciliation.
type PendingCredit struct {
	Reference          string
	FromIdentity       string
	FromAccountNumber  string
	FromDisplayName    string
	RecipientIdentity  string
	ToAccountNumber    string
	ToName             string
	Amount             decimal.Decimal
	Description        string
	Attempts           int
	FirstFailedAt      time.Time
	LastError          string
}
