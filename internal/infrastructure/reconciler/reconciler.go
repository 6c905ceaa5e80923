// Package reconciler retries credits that could not be applied during a
// transfer. The debit side of those transfers has already committed, so every
// pending credit must eventually land or be surfaced loudly.
package reconciler

import (
	"context"
	"errors"
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// casRetries bounds the compare-and-set loop within one reconciliation
	// attempt. Contention inside the loop does not consume queue attempts.
	casRetries         = 10
	casInitialInterval = 2 * time.Millisecond
	casMaxInterval     = 50 * time.Millisecond
)

// Reconciler drains the pending-credit queue on an interval.
type Reconciler struct {
	queue       usecase.ReconciliationQueue
	accounts    usecase.AccountStore
	ledger      usecase.Ledger
	ids         usecase.IDGenerator
	notifier    usecase.Notifier
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	batchSize   int
	interval    time.Duration
	maxAttempts int
}

// Config for Reconciler.
type Config struct {
	Queue       usecase.ReconciliationQueue
	Accounts    usecase.AccountStore
	Ledger      usecase.Ledger
	IDGenerator usecase.IDGenerator
	Notifier    usecase.Notifier
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
	BatchSize   int           // Number of pending credits to fetch per batch
	Interval    time.Duration // Polling interval
	MaxAttempts int           // Attempts before a credit is abandoned
}

// New creates a new Reconciler.
func New(cfg Config) *Reconciler {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 5
	}

	return &Reconciler{
		queue:       cfg.Queue,
		accounts:    cfg.Accounts,
		ledger:      cfg.Ledger,
		ids:         cfg.IDGenerator,
		notifier:    cfg.Notifier,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		batchSize:   cfg.BatchSize,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
	}
}

// Start begins the reconciliation worker.
// It runs continuously until the context is cancelled.
func (r *Reconciler) Start(ctx context.Context) error {
	r.logger.Info().
		Int("batch_size", r.batchSize).
		Dur("interval", r.interval).
		Msg("reconciler started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Process immediately on start
	if err := r.ProcessBatch(ctx); err != nil {
		r.logger.Error().Err(err).Msg("error reconciling pending credits on start")
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("reconciler shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := r.ProcessBatch(ctx); err != nil {
				r.logger.Error().Err(err).Msg("error reconciling pending credits")
			}
		}
	}
}

// ProcessBatch fetches and retries a batch of pending credits.
func (r *Reconciler) ProcessBatch(ctx context.Context) error {
	pending, err := r.queue.DequeueBatch(ctx, r.batchSize)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		return nil
	}

	r.logger.Info().Int("count", len(pending)).Msg("reconciling pending credits")

	for _, credit := range pending {
		if err := r.applyCredit(ctx, credit); err != nil {
			if r.metrics != nil {
				r.metrics.ReconcileErrors.Inc()
			}

			r.retryLater(ctx, credit, err)

			continue
		}

		if r.metrics != nil {
			r.metrics.CreditsReconciled.Inc()
		}
	}

	return nil
}

// applyCredit replays the credit side of a transfer whose debit already
// committed. The compare-and-set runs under its own bounded backoff so a busy
// recipient costs retries within this cycle, not queue attempts.
func (r *Reconciler) applyCredit(ctx context.Context, credit *domain.PendingCredit) error {
	var (
		recipient *domain.Account
		updated   decimal.Decimal
	)

	op := func() error {
		account, err := r.accounts.GetByAccountNumber(ctx, credit.ToAccountNumber)
		if err != nil {
			return backoff.Permanent(err)
		}

		recipient = account
		updated = account.ApplyCredit(credit.Amount)

		err = r.accounts.CompareAndSetBalance(ctx, account.Identity, account.Balance, updated)
		if err == nil || errors.Is(err, domain.ErrConcurrentModification) {
			return err
		}

		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = casInitialInterval
	b.MaxInterval = casMaxInterval
	b.MaxElapsedTime = 0

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, casRetries), ctx)); err != nil {
		return err
	}

	entry := &domain.Entry{
		ID:                        r.ids.Generate(),
		AccountIdentity:           recipient.Identity,
		Direction:                 domain.DirectionCredit,
		Amount:                    credit.Amount,
		BalanceAfter:              updated,
		CounterpartyAccountNumber: credit.FromAccountNumber,
		CounterpartyName:          credit.FromDisplayName,
		Reference:                 credit.Reference,
		Description:               credit.Description,
	}

	if _, err := r.ledger.Append(ctx, entry); err != nil {
		// The balance already moved; only the trail is missing.
		r.logger.Error().
			Err(err).
			Str("reference", credit.Reference).
			Str("identity", recipient.Identity).
			Str("amount", credit.Amount.String()).
			Msg("credit entry append failed after reconciled credit")
	}

	r.logger.Info().
		Str("reference", credit.Reference).
		Str("identity", recipient.Identity).
		Str("amount", credit.Amount.String()).
		Int("attempts", credit.Attempts+1).
		Msg("pending credit reconciled")

	r.notify(ctx, credit, updated)

	return nil
}

// retryLater puts a failed credit back on the queue, or abandons it once the
// attempt budget is spent. Abandoned credits represent money debited but never
// credited and require operator action.
func (r *Reconciler) retryLater(ctx context.Context, credit *domain.PendingCredit, cause error) {
	credit.Attempts++
	credit.LastError = cause.Error()

	if credit.Attempts >= r.maxAttempts {
		if r.metrics != nil {
			r.metrics.CreditsAbandoned.Inc()
		}

		r.logger.Error().
			Str("reference", credit.Reference).
			Str("to_account_number", credit.ToAccountNumber).
			Str("amount", credit.Amount.String()).
			Int("attempts", credit.Attempts).
			Str("last_error", credit.LastError).
			Msg("pending credit abandoned after max attempts")
		return
	}

	if err := r.queue.Enqueue(ctx, credit); err != nil {
		r.logger.Error().
			Err(err).
			Str("reference", credit.Reference).
			Msg("failed to requeue pending credit")
	}
}

func (r *Reconciler) notify(ctx context.Context, credit *domain.PendingCredit, balanceAfter decimal.Decimal) {
	if r.notifier == nil {
		return
	}

	notification := domain.TransferNotification{
		Reference:           credit.Reference,
		AccountIdentity:     credit.RecipientIdentity,
		Direction:           domain.DirectionCredit,
		Amount:              credit.Amount,
		BalanceAfter:        balanceAfter,
		CounterpartyName:    credit.FromDisplayName,
		CounterpartyAccount: credit.FromAccountNumber,
		Description:         credit.Description,
		Timestamp:           time.Now(),
	}

	if err := r.notifier.Notify(ctx, notification); err != nil {
		r.logger.Warn().
			Err(err).
			Str("reference", credit.Reference).
			Msg("failed to send reconciled credit notification")
	}
}
