package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
	"github.com/iho/gobank/internal/usecase/mocks"
)

type transferFixture struct {
	accounts *mocks.MockAccountStore
	ledger   *mocks.MockLedger
	hasher   *mocks.MockSecretHasher
	notifier *mocks.MockNotifier
	recon    *mocks.MockReconciliationQueue
	uc       *usecase.TransferUseCase
}

func newTransferFixture(t *testing.T) *transferFixture {
	t.Helper()

	f := &transferFixture{
		accounts: mocks.NewMockAccountStore(),
		ledger:   mocks.NewMockLedger(),
		hasher:   mocks.NewMockSecretHasher(),
		notifier: mocks.NewMockNotifier(),
		recon:    mocks.NewMockReconciliationQueue(),
	}

	f.uc = usecase.NewTransferUseCase(usecase.TransferConfig{
		Accounts:       f.accounts,
		Ledger:         f.ledger,
		Hasher:         f.hasher,
		IDGenerator:    mocks.NewMockIDGenerator(),
		Notifier:       f.notifier,
		Reconciliation: f.recon,
		Logger:         zerolog.Nop(),
	})

	return f
}

func (f *transferFixture) seedAccount(t *testing.T, identity, number string, balance int64) {
	t.Helper()

	err := f.accounts.Create(context.Background(), &domain.Account{
		Identity:      identity,
		DisplayName:   "Account " + identity,
		AccountNumber: number,
		Balance:       decimal.NewFromInt(balance),
		SecretHash:    "hashed:1234",
	})
	if err != nil {
		t.Fatalf("seed account %s: %v", identity, err)
	}
}

func (f *transferFixture) balance(t *testing.T, identity string) decimal.Decimal {
	t.Helper()

	account, err := f.accounts.Get(context.Background(), identity)
	if err != nil {
		t.Fatalf("get account %s: %v", identity, err)
	}

	return account.Balance
}

func TestTransferUseCase_Transfer(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*transferFixture, *testing.T)
		input     usecase.TransferInput
		errorType error
	}{
		{
			name: "successful transfer",
			setup: func(f *transferFixture, t *testing.T) {
				f.seedAccount(t, "alice", "1111111111", 100000)
				f.seedAccount(t, "bob", "2222222222", 0)
			},
			input: usecase.TransferInput{
				FromIdentity:    "alice",
				Secret:          "1234",
				ToAccountNumber: "2222222222",
				ToName:          "Bob",
				Amount:          decimal.NewFromInt(40000),
			},
		},
		{
			name: "insufficient funds",
			setup: func(f *transferFixture, t *testing.T) {
				f.seedAccount(t, "alice", "1111111111", 60000)
				f.seedAccount(t, "bob", "2222222222", 0)
			},
			input: usecase.TransferInput{
				FromIdentity:    "alice",
				Secret:          "1234",
				ToAccountNumber: "2222222222",
				Amount:          decimal.NewFromInt(70000),
			},
			errorType: domain.ErrInsufficientFunds,
		},
		{
			name: "invalid secret",
			setup: func(f *transferFixture, t *testing.T) {
				f.seedAccount(t, "alice", "1111111111", 100000)
			},
			input: usecase.TransferInput{
				FromIdentity:    "alice",
				Secret:          "9999",
				ToAccountNumber: "2222222222",
				Amount:          decimal.NewFromInt(100),
			},
			errorType: domain.ErrInvalidSecret,
		},
		{
			name:  "unknown sender",
			setup: func(f *transferFixture, t *testing.T) {},
			input: usecase.TransferInput{
				FromIdentity:    "ghost",
				Secret:          "1234",
				ToAccountNumber: "2222222222",
				Amount:          decimal.NewFromInt(100),
			},
			errorType: domain.ErrSenderNotFound,
		},
		{
			name:  "zero amount",
			setup: func(f *transferFixture, t *testing.T) {},
			input: usecase.TransferInput{
				FromIdentity:    "alice",
				Secret:          "1234",
				ToAccountNumber: "2222222222",
				Amount:          decimal.Zero,
			},
			errorType: domain.ErrInvalidAmount,
		},
		{
			name:  "negative amount",
			setup: func(f *transferFixture, t *testing.T) {},
			input: usecase.TransferInput{
				FromIdentity:    "alice",
				Secret:          "1234",
				ToAccountNumber: "2222222222",
				Amount:          decimal.NewFromInt(-50),
			},
			errorType: domain.ErrInvalidAmount,
		},
		{
			name:  "fractional minor units",
			setup: func(f *transferFixture, t *testing.T) {},
			input: usecase.TransferInput{
				FromIdentity:    "alice",
				Secret:          "1234",
				ToAccountNumber: "2222222222",
				Amount:          decimal.RequireFromString("10.5"),
			},
			errorType: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTransferFixture(t)
			tt.setup(f, t)

			result, err := f.uc.Transfer(context.Background(), tt.input)

			if tt.errorType != nil {
				if !errors.Is(err, tt.errorType) {
					t.Fatalf("expected error %v, got %v", tt.errorType, err)
				}

				if len(f.ledger.All()) != 0 {
					t.Errorf("expected no ledger entries on failure, got %d", len(f.ledger.All()))
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.Reference == "" {
				t.Error("expected a transfer reference")
			}
		})
	}
}

func TestTransferUseCase_BalancesAndEntries(t *testing.T) {
	f := newTransferFixture(t)
	f.seedAccount(t, "alice", "1111111111", 100000)
	f.seedAccount(t, "bob", "2222222222", 500)

	result, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromIdentity:    "alice",
		Secret:          "1234",
		ToAccountNumber: "2222222222",
		ToName:          "Bob",
		Amount:          decimal.NewFromInt(40000),
		Description:     "rent",
	})
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if !result.NewBalance.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("expected sender balance 60000, got %s", result.NewBalance)
	}

	if got := f.balance(t, "alice"); !got.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("stored sender balance = %s, want 60000", got)
	}

	if got := f.balance(t, "bob"); !got.Equal(decimal.NewFromInt(40500)) {
		t.Errorf("stored recipient balance = %s, want 40500", got)
	}

	entries := f.ledger.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}

	debit, credit := entries[0], entries[1]

	if debit.Direction != domain.DirectionDebit || debit.AccountIdentity != "alice" {
		t.Errorf("first entry should be the sender debit, got %+v", debit)
	}

	if credit.Direction != domain.DirectionCredit || credit.AccountIdentity != "bob" {
		t.Errorf("second entry should be the recipient credit, got %+v", credit)
	}

	if debit.Reference != result.Reference || credit.Reference != result.Reference {
		t.Error("both entries must share the transfer reference")
	}

	if !debit.BalanceAfter.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("debit BalanceAfter = %s, want 60000", debit.BalanceAfter)
	}

	if !credit.BalanceAfter.Equal(decimal.NewFromInt(40500)) {
		t.Errorf("credit BalanceAfter = %s, want 40500", credit.BalanceAfter)
	}

	notifications := f.notifier.Notifications()
	if len(notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifications))
	}

	if notifications[0].AccountIdentity != "alice" || notifications[1].AccountIdentity != "bob" {
		t.Errorf("unexpected notification targets: %s, %s",
			notifications[0].AccountIdentity, notifications[1].AccountIdentity)
	}
}

func TestTransferUseCase_ExternalDestination(t *testing.T) {
	f := newTransferFixture(t)
	f.seedAccount(t, "alice", "1111111111", 100000)

	result, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromIdentity:    "alice",
		Secret:          "1234",
		ToAccountNumber: "9999999999",
		ToName:          "External Payee",
		Amount:          decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("external transfer failed: %v", err)
	}

	if !result.NewBalance.Equal(decimal.NewFromInt(99000)) {
		t.Errorf("expected balance 99000, got %s", result.NewBalance)
	}

	entries := f.ledger.All()
	if len(entries) != 1 {
		t.Fatalf("external transfer must be debit-only, got %d entries", len(entries))
	}

	if entries[0].Direction != domain.DirectionDebit {
		t.Errorf("expected a debit entry, got %s", entries[0].Direction)
	}

	if len(f.notifier.Notifications()) != 1 {
		t.Errorf("expected only the sender notification, got %d", len(f.notifier.Notifications()))
	}

	if len(f.recon.Pending()) != 0 {
		t.Error("external destination must not be treated as a failed credit")
	}
}

func TestTransferUseCase_SelfTransfer(t *testing.T) {
	f := newTransferFixture(t)
	f.seedAccount(t, "alice", "1111111111", 5000)

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromIdentity:    "alice",
		Secret:          "1234",
		ToAccountNumber: "1111111111",
		Amount:          decimal.NewFromInt(300),
	})
	if err != nil {
		t.Fatalf("self transfer failed: %v", err)
	}

	if got := f.balance(t, "alice"); !got.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("self transfer must leave the balance unchanged, got %s", got)
	}

	entries := f.ledger.All()
	if len(entries) != 2 {
		t.Fatalf("expected a debit and a credit entry, got %d", len(entries))
	}
}

func TestTransferUseCase_ConflictExhaustion(t *testing.T) {
	f := newTransferFixture(t)
	f.seedAccount(t, "alice", "1111111111", 100000)

	f.accounts.CompareAndSetBalanceFunc = func(ctx context.Context, identity string, expected, updated decimal.Decimal) error {
		return domain.ErrConcurrentModification
	}

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromIdentity:    "alice",
		Secret:          "1234",
		ToAccountNumber: "2222222222",
		Amount:          decimal.NewFromInt(100),
	})

	if !errors.Is(err, domain.ErrTransferConflict) {
		t.Fatalf("expected ErrTransferConflict after retry exhaustion, got %v", err)
	}

	if len(f.ledger.All()) != 0 {
		t.Error("no ledger entry may exist for a transfer that never committed")
	}
}

// failingCreditStore fails balance updates for one identity and delegates the
// rest to the embedded mock.
type failingCreditStore struct {
	*mocks.MockAccountStore

	failFor string
	err     error
}

func (s *failingCreditStore) CompareAndSetBalance(ctx context.Context, identity string, expected, updated decimal.Decimal) error {
	if identity == s.failFor {
		return s.err
	}

	return s.MockAccountStore.CompareAndSetBalance(ctx, identity, expected, updated)
}

func TestTransferUseCase_CreditFailureDefersToReconciliation(t *testing.T) {
	f := newTransferFixture(t)
	f.seedAccount(t, "alice", "1111111111", 100000)
	f.seedAccount(t, "bob", "2222222222", 0)

	storeErr := errors.New("store unavailable")

	f.uc = usecase.NewTransferUseCase(usecase.TransferConfig{
		Accounts:       &failingCreditStore{MockAccountStore: f.accounts, failFor: "bob", err: storeErr},
		Ledger:         f.ledger,
		Hasher:         f.hasher,
		IDGenerator:    mocks.NewMockIDGenerator(),
		Notifier:       f.notifier,
		Reconciliation: f.recon,
		Logger:         zerolog.Nop(),
	})

	result, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromIdentity:    "alice",
		Secret:          "1234",
		ToAccountNumber: "2222222222",
		ToName:          "Bob",
		Amount:          decimal.NewFromInt(2500),
		Description:     "groceries",
	})
	if err != nil {
		t.Fatalf("transfer must succeed once the debit commits: %v", err)
	}

	if !result.NewBalance.Equal(decimal.NewFromInt(97500)) {
		t.Errorf("sender balance = %s, want 97500", result.NewBalance)
	}

	pending := f.recon.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending credit, got %d", len(pending))
	}

	credit := pending[0]
	if credit.Reference != result.Reference {
		t.Error("pending credit must carry the transfer reference")
	}

	if credit.RecipientIdentity != "bob" || !credit.Amount.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("unexpected pending credit: %+v", credit)
	}

	entries := f.ledger.All()
	if len(entries) != 1 || entries[0].Direction != domain.DirectionDebit {
		t.Fatalf("only the debit entry may exist, got %d entries", len(entries))
	}
}

func TestTransferUseCase_DebitRecordFailureRefundsSender(t *testing.T) {
	f := newTransferFixture(t)
	f.seedAccount(t, "alice", "1111111111", 100000)
	f.seedAccount(t, "bob", "2222222222", 0)

	appendErr := errors.New("ledger unavailable")
	f.ledger.AppendFunc = func(ctx context.Context, entry *domain.Entry) (string, error) {
		return "", appendErr
	}

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromIdentity:    "alice",
		Secret:          "1234",
		ToAccountNumber: "2222222222",
		ToName:          "Bob",
		Amount:          decimal.NewFromInt(2500),
	})

	if !errors.Is(err, appendErr) {
		t.Fatalf("expected the append error to surface, got %v", err)
	}

	if got := f.balance(t, "alice"); !got.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("sender balance = %s, want the debit refunded to 100000", got)
	}

	if got := f.balance(t, "bob"); !got.Equal(decimal.Zero) {
		t.Errorf("recipient balance = %s, want 0", got)
	}

	if len(f.recon.Pending()) != 0 {
		t.Error("a refunded debit must not reach the reconciliation queue")
	}

	if len(f.notifier.Notifications()) != 0 {
		t.Error("a failed transfer must not notify anyone")
	}
}

// casBudgetStore permits a fixed number of balance updates and fails the rest.
type casBudgetStore struct {
	*mocks.MockAccountStore

	mu      sync.Mutex
	allowed int
	err     error
}

func (s *casBudgetStore) CompareAndSetBalance(ctx context.Context, identity string, expected, updated decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.allowed > 0 {
		s.allowed--
		return s.MockAccountStore.CompareAndSetBalance(ctx, identity, expected, updated)
	}

	return s.err
}

func TestTransferUseCase_DebitRecordFailureQueuesRefund(t *testing.T) {
	f := newTransferFixture(t)
	f.seedAccount(t, "alice", "1111111111", 100000)
	f.seedAccount(t, "bob", "2222222222", 0)

	appendErr := errors.New("ledger unavailable")
	f.ledger.AppendFunc = func(ctx context.Context, entry *domain.Entry) (string, error) {
		return "", appendErr
	}

	// The debit commits, then both the append and the refund fail.
	f.uc = usecase.NewTransferUseCase(usecase.TransferConfig{
		Accounts:       &casBudgetStore{MockAccountStore: f.accounts, allowed: 1, err: errors.New("store unavailable")},
		Ledger:         f.ledger,
		Hasher:         f.hasher,
		IDGenerator:    mocks.NewMockIDGenerator(),
		Notifier:       f.notifier,
		Reconciliation: f.recon,
		Logger:         zerolog.Nop(),
	})

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromIdentity:    "alice",
		Secret:          "1234",
		ToAccountNumber: "2222222222",
		ToName:          "Bob",
		Amount:          decimal.NewFromInt(2500),
	})

	if !errors.Is(err, appendErr) {
		t.Fatalf("expected the append error to surface, got %v", err)
	}

	pending := f.recon.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 queued refund, got %d", len(pending))
	}

	refund := pending[0]
	if refund.RecipientIdentity != "alice" || refund.ToAccountNumber != "1111111111" {
		t.Errorf("refund must target the sender, got %+v", refund)
	}

	if !refund.Amount.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("refund amount = %s, want 2500", refund.Amount)
	}
}

func TestTransferUseCase_ConcurrentTransfersConserveFunds(t *testing.T) {
	f := newTransferFixture(t)
	f.seedAccount(t, "alice", "1111111111", 10000)
	f.seedAccount(t, "bob", "2222222222", 0)

	const (
		workers = 8
		amount  = 100
	)

	var wg sync.WaitGroup

	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
				FromIdentity:    "alice",
				Secret:          "1234",
				ToAccountNumber: "2222222222",
				Amount:          decimal.NewFromInt(amount),
			})
			errCh <- err
		}()
	}

	wg.Wait()
	close(errCh)

	succeeded := 0
	for err := range errCh {
		if err == nil {
			succeeded++
			continue
		}

		if !errors.Is(err, domain.ErrTransferConflict) {
			t.Errorf("unexpected error: %v", err)
		}
	}

	moved := decimal.NewFromInt(int64(succeeded * amount))
	aliceBalance := f.balance(t, "alice")
	bobBalance := f.balance(t, "bob")

	if !aliceBalance.Equal(decimal.NewFromInt(10000).Sub(moved)) {
		t.Errorf("sender balance = %s, want %s", aliceBalance, decimal.NewFromInt(10000).Sub(moved))
	}

	if !bobBalance.Equal(moved) {
		t.Errorf("recipient balance = %s, want %s", bobBalance, moved)
	}

	if !aliceBalance.Add(bobBalance).Equal(decimal.NewFromInt(10000)) {
		t.Error("total funds must be conserved across concurrent transfers")
	}
}

func TestTransferUseCase_ConcurrentTransfersCannotOverdraw(t *testing.T) {
	f := newTransferFixture(t)
	f.seedAccount(t, "alice", "1111111111", 500)
	f.seedAccount(t, "bob", "2222222222", 0)

	const (
		workers = 10
		amount  = 100
	)

	var wg sync.WaitGroup

	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
				FromIdentity:    "alice",
				Secret:          "1234",
				ToAccountNumber: "2222222222",
				Amount:          decimal.NewFromInt(amount),
			})
			errCh <- err
		}()
	}

	wg.Wait()
	close(errCh)

	succeeded, insufficient := 0, 0
	for err := range errCh {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientFunds):
			insufficient++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	// The balance fits exactly five transfers; the rest must be rejected
	// before touching the store.
	if succeeded != 5 || insufficient != 5 {
		t.Errorf("succeeded = %d, insufficient = %d, want 5 and 5", succeeded, insufficient)
	}

	aliceBalance := f.balance(t, "alice")
	if aliceBalance.IsNegative() {
		t.Fatalf("sender balance went negative: %s", aliceBalance)
	}

	if !aliceBalance.Equal(decimal.Zero) {
		t.Errorf("sender balance = %s, want 0", aliceBalance)
	}

	if got := f.balance(t, "bob"); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("recipient balance = %s, want 500", got)
	}

	debits := 0
	for _, entry := range f.ledger.All() {
		if entry.AccountIdentity == "alice" && entry.Direction == domain.DirectionDebit {
			debits++
		}
	}

	if debits != 5 {
		t.Errorf("debit entries = %d, want one per successful transfer", debits)
	}
}
