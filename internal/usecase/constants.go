package usecase

import "time"

const (
	// DefaultTransferRetries bounds the compare-and-set loop before a
	// transfer fails with domain.ErrTransferConflict.
	DefaultTransferRetries = 10

	// DefaultDerivationAttempts bounds salted account number re-derivation.
	DefaultDerivationAttempts = 5

	// DefaultListLimit and MaxListLimit clamp ledger pagination.
	DefaultListLimit = 20
	MaxListLimit     = 100

	// SeedEntryDescription is the description of the provisioning seed entry.
	SeedEntryDescription = "initial funding"

	// RefundEntryDescription marks a pending credit that returns a committed
	// debit whose ledger entry could not be written.
	RefundEntryDescription = "transfer refund"

	// casInitialInterval and casMaxInterval shape the backoff between
	// compare-and-set attempts on a contended account.
	casInitialInterval = 2 * time.Millisecond
	casMaxInterval     = 50 * time.Millisecond
)
