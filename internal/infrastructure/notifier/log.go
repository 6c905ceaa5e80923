// Package notifier holds notification dispatch implementations.
package notifier

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/domain"
)

// LogNotifier is a notifier that logs transfer notifications. It stands in
// for a push or messaging integration in deployments without one.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(ctx context.Context, notification domain.TransferNotification) error {
	n.logger.Info().
		Str("reference", notification.Reference).
		Str("account_identity", notification.AccountIdentity).
		Str("direction", string(notification.Direction)).
		Str("amount", notification.Amount.String()).
		Str("balance_after", notification.BalanceAfter.String()).
		Str("counterparty_name", notification.CounterpartyName).
		Str("counterparty_account", notification.CounterpartyAccount).
		Msg("TRANSFER NOTIFICATION")

	return nil
}
