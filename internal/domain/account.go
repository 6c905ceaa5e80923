package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a balance-holding account owned by the account store.
// Identity and AccountNumber are immutable once provisioned; Balance mutates
// only through CompareAndSetBalance, SecretHash only through RotateSecret.
type Account struct {
	Identity      string
	DisplayName   string
	AccountNumber string
	Balance       decimal.Decimal
	SecretHash    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CanDebit reports whether the balance covers amount.
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// ApplyDebit returns the balance after debiting amount.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after crediting amount.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// DeriveAccountNumber derives a numeric account number of the given length
// deterministically from identity. Salt disambiguates colliding identities;
// salt 0 is the canonical derivation.
func DeriveAccountNumber(identity string, salt, length int) string {
	h := sha256.New()
	h.Write([]byte(identity))

	if salt > 0 {
		fmt.Fprintf(h, ":%d", salt)
	}

	sum := h.Sum(nil)
	n := binary.BigEndian.Uint64(sum[:8])
	mod := uint64(math.Pow10(length))

	return fmt.Sprintf("%0*d", length, n%mod)
}
