package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound        = errors.New("account not found")
	ErrSenderNotFound         = errors.New("sender account not found")
	ErrAccountExists          = errors.New("account already exists")
	ErrAccountNumberCollision = errors.New("account number collision")

	// Transfer errors
	ErrInvalidAmount     = errors.New("amount must be a positive whole number of minor units")
	ErrInvalidSecret     = errors.New("invalid transaction secret")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTransferConflict  = errors.New("transfer aborted after repeated balance conflicts")

	// Store errors
	ErrConcurrentModification = errors.New("balance changed concurrently")

	// Ledger errors
	ErrInvalidEntry = errors.New("invalid ledger entry")
)
