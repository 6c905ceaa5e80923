package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
)

// TransferUseCase orchestrates funds movements: it validates the request,
// authenticates the transaction secret, mutates balances through the
// compare-and-set loop and appends matching ledger entries.
type TransferUseCase struct {
	accounts   AccountStore
	ledger     Ledger
	hasher     SecretHasher
	idGen      IDGenerator
	notifier   Notifier
	recon      ReconciliationQueue
	logger     zerolog.Logger
	maxRetries int
}

// TransferConfig holds dependencies for the transfer engine.
type TransferConfig struct {
	Accounts       AccountStore
	Ledger         Ledger
	Hasher         SecretHasher
	IDGenerator    IDGenerator
	Notifier       Notifier
	Reconciliation ReconciliationQueue
	Logger         zerolog.Logger
	MaxRetries     int
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(cfg TransferConfig) *TransferUseCase {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultTransferRetries
	}

	return &TransferUseCase{
		accounts:   cfg.Accounts,
		ledger:     cfg.Ledger,
		hasher:     cfg.Hasher,
		idGen:      cfg.IDGenerator,
		notifier:   cfg.Notifier,
		recon:      cfg.Reconciliation,
		logger:     cfg.Logger,
		maxRetries: cfg.MaxRetries,
	}
}

// TransferInput represents one requested funds movement.
type TransferInput struct {
	FromIdentity    string
	Secret          string
	ToAccountNumber string
	ToName          string
	Amount          decimal.Decimal
	Description     string
}

// TransferResult is returned to the sender on success.
type TransferResult struct {
	Reference  string
	NewBalance decimal.Decimal
}

// Transfer moves funds from the sender to the destination account number.
// The algorithm is uniform whether the counterparty is internal or external:
// an unresolved destination is accepted as external and produces a debit-only
// transfer. Once the debit has committed the operation is no longer
// cancellable; a failed credit is deferred to reconciliation, never rolled
// back.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	sender, err := uc.accounts.Get(ctx, input.FromIdentity)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrSenderNotFound
		}

		return nil, err
	}

	if err := uc.hasher.Compare(sender.SecretHash, input.Secret); err != nil {
		return nil, domain.ErrInvalidSecret
	}

	balanceAfter, err := uc.debit(ctx, input.FromIdentity, input.Amount)
	if err != nil {
		return nil, err
	}

	reference := uc.idGen.Generate()
	now := time.Now().UTC()

	debitEntry := &domain.Entry{
		ID:                        uc.idGen.Generate(),
		AccountIdentity:           input.FromIdentity,
		Direction:                 domain.DirectionDebit,
		Amount:                    input.Amount,
		BalanceAfter:              balanceAfter,
		CounterpartyAccountNumber: input.ToAccountNumber,
		CounterpartyName:          input.ToName,
		Reference:                 reference,
		Description:               input.Description,
		CreatedAt:                 now,
	}

	if _, err := uc.ledger.Append(ctx, debitEntry); err != nil {
		// The debit has committed but left no trail. Undo it so a failed
		// transfer leaves both balance and ledger untouched.
		uc.logger.Error().
			Err(err).
			Str("reference", reference).
			Str("from_identity", input.FromIdentity).
			Str("amount", input.Amount.String()).
			Msg("debit entry append failed after committed debit")

		uc.refundDebit(ctx, sender, input, reference, now, err)

		return nil, err
	}

	recipient, recipientBalance := uc.applyCreditSide(ctx, sender, input, reference, now)

	uc.notify(ctx, domain.TransferNotification{
		Reference:           reference,
		AccountIdentity:     sender.Identity,
		Direction:           domain.DirectionDebit,
		Amount:              input.Amount,
		BalanceAfter:        balanceAfter,
		CounterpartyName:    input.ToName,
		CounterpartyAccount: input.ToAccountNumber,
		Description:         input.Description,
		Timestamp:           now,
	})

	if recipient != nil {
		uc.notify(ctx, domain.TransferNotification{
			Reference:           reference,
			AccountIdentity:     recipient.Identity,
			Direction:           domain.DirectionCredit,
			Amount:              input.Amount,
			BalanceAfter:        recipientBalance,
			CounterpartyName:    sender.DisplayName,
			CounterpartyAccount: sender.AccountNumber,
			Description:         input.Description,
			Timestamp:           now,
		})
	}

	return &TransferResult{Reference: reference, NewBalance: balanceAfter}, nil
}

// debit runs the read-check-write sequence under the bounded retry policy.
// InsufficientFunds leaves the store untouched; retry exhaustion maps to
// ErrTransferConflict.
func (uc *TransferUseCase) debit(ctx context.Context, identity string, amount decimal.Decimal) (decimal.Decimal, error) {
	var balanceAfter decimal.Decimal

	op := func() error {
		account, err := uc.accounts.Get(ctx, identity)
		if err != nil {
			return backoff.Permanent(err)
		}

		if !account.CanDebit(amount) {
			return backoff.Permanent(domain.ErrInsufficientFunds)
		}

		balanceAfter = account.ApplyDebit(amount)

		return uc.compareAndSet(ctx, identity, account.Balance, balanceAfter)
	}

	if err := uc.retryCAS(ctx, op); err != nil {
		return decimal.Zero, err
	}

	return balanceAfter, nil
}

// credit increases the recipient balance under the same retry policy.
func (uc *TransferUseCase) credit(ctx context.Context, identity string, amount decimal.Decimal) (decimal.Decimal, error) {
	var balanceAfter decimal.Decimal

	op := func() error {
		account, err := uc.accounts.Get(ctx, identity)
		if err != nil {
			return backoff.Permanent(err)
		}

		balanceAfter = account.ApplyCredit(amount)

		return uc.compareAndSet(ctx, identity, account.Balance, balanceAfter)
	}

	if err := uc.retryCAS(ctx, op); err != nil {
		return decimal.Zero, err
	}

	return balanceAfter, nil
}

func (uc *TransferUseCase) compareAndSet(ctx context.Context, identity string, expected, updated decimal.Decimal) error {
	err := uc.accounts.CompareAndSetBalance(ctx, identity, expected, updated)
	if err == nil || errors.Is(err, domain.ErrConcurrentModification) {
		return err
	}

	return backoff.Permanent(err)
}

// retryCAS retries op with exponential backoff while it reports
// ErrConcurrentModification, up to the configured bound.
func (uc *TransferUseCase) retryCAS(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = casInitialInterval
	b.MaxInterval = casMaxInterval
	b.MaxElapsedTime = 0

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(uc.maxRetries)), ctx))
	if errors.Is(err, domain.ErrConcurrentModification) {
		return domain.ErrTransferConflict
	}

	return err
}

// applyCreditSide resolves the destination and performs the symmetric credit
// when it is a known internal account. A failed credit is deferred to the
// reconciliation queue; the transfer is still reported successful since the
// money has already left the sender.
func (uc *TransferUseCase) applyCreditSide(
	ctx context.Context,
	sender *domain.Account,
	input TransferInput,
	reference string,
	now time.Time,
) (*domain.Account, decimal.Decimal) {
	recipient, err := uc.accounts.GetByAccountNumber(ctx, input.ToAccountNumber)
	if errors.Is(err, domain.ErrAccountNotFound) {
		// Destination is external to this system: debit-only transfer.
		return nil, decimal.Zero
	}

	if err != nil {
		uc.deferCredit(ctx, sender, "", input, reference, now, err)
		return nil, decimal.Zero
	}

	balanceAfter, err := uc.credit(ctx, recipient.Identity, input.Amount)
	if err != nil {
		uc.deferCredit(ctx, sender, recipient.Identity, input, reference, now, err)
		return nil, decimal.Zero
	}

	creditEntry := &domain.Entry{
		ID:                        uc.idGen.Generate(),
		AccountIdentity:           recipient.Identity,
		Direction:                 domain.DirectionCredit,
		Amount:                    input.Amount,
		BalanceAfter:              balanceAfter,
		CounterpartyAccountNumber: sender.AccountNumber,
		CounterpartyName:          sender.DisplayName,
		Reference:                 reference,
		Description:               input.Description,
		CreatedAt:                 now,
	}

	if _, err := uc.ledger.Append(ctx, creditEntry); err != nil {
		uc.logger.Error().
			Err(err).
			Str("reference", reference).
			Str("recipient_identity", recipient.Identity).
			Msg("credit entry append failed after committed credit")
	}

	return recipient, balanceAfter
}

func (uc *TransferUseCase) deferCredit(
	ctx context.Context,
	sender *domain.Account,
	recipientIdentity string,
	input TransferInput,
	reference string,
	now time.Time,
	cause error,
) {
	uc.logger.Error().
		Err(cause).
		Str("reference", reference).
		Str("from_identity", sender.Identity).
		Str("from_account_number", sender.AccountNumber).
		Str("recipient_identity", recipientIdentity).
		Str("to_account_number", input.ToAccountNumber).
		Str("amount", input.Amount.String()).
		Msg("credit failed after committed debit, deferring to reconciliation")

	pending := &domain.PendingCredit{
		Reference:         reference,
		FromIdentity:      sender.Identity,
		FromAccountNumber: sender.AccountNumber,
		FromDisplayName:   sender.DisplayName,
		RecipientIdentity: recipientIdentity,
		ToAccountNumber:   input.ToAccountNumber,
		ToName:            input.ToName,
		Amount:            input.Amount,
		Description:       input.Description,
		Attempts:          1,
		FirstFailedAt:     now,
		LastError:         cause.Error(),
	}

	if uc.recon == nil {
		return
	}

	if err := uc.recon.Enqueue(ctx, pending); err != nil {
		uc.logger.Error().
			Err(err).
			Str("reference", reference).
			Msg("failed to enqueue pending credit; reconcile manually from logs")
	}
}

// refundDebit returns a committed debit to the sender when the matching ledger
// entry could not be written. A successful refund appends no entries, so the
// account ends up exactly as it was before the call. When even the refund
// cannot be applied the amount is parked on the reconciliation queue with the
// sender as the destination.
func (uc *TransferUseCase) refundDebit(
	ctx context.Context,
	sender *domain.Account,
	input TransferInput,
	reference string,
	now time.Time,
	cause error,
) {
	if _, err := uc.credit(ctx, sender.Identity, input.Amount); err == nil {
		uc.logger.Warn().
			Str("reference", reference).
			Str("from_identity", sender.Identity).
			Str("amount", input.Amount.String()).
			Msg("committed debit refunded after ledger append failure")

		return
	}

	refund := TransferInput{
		FromIdentity:    sender.Identity,
		ToAccountNumber: sender.AccountNumber,
		ToName:          sender.DisplayName,
		Amount:          input.Amount,
		Description:     RefundEntryDescription,
	}

	uc.deferCredit(ctx, sender, sender.Identity, refund, reference, now, cause)
}

func (uc *TransferUseCase) notify(ctx context.Context, notification domain.TransferNotification) {
	if uc.notifier == nil {
		return
	}

	if err := uc.notifier.Notify(ctx, notification); err != nil {
		uc.logger.Warn().
			Err(err).
			Str("reference", notification.Reference).
			Str("account_identity", notification.AccountIdentity).
			Msg("transfer notification failed")
	}
}
