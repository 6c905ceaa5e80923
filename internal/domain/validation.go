package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidIdentity    = errors.New("invalid identity")
	ErrInvalidDisplayName = errors.New("invalid display name")
	ErrNegativeSeed       = errors.New("seed balance must not be negative")
)

// Validation constants
const (
	MaxDisplayNameLength = 255
	DefaultSecretDigits  = 4
)

// ValidateIdentity validates the immutable account key.
func ValidateIdentity(identity string) error {
	identity = strings.TrimSpace(identity)

	if identity == "" {
		return fmt.Errorf("%w: identity cannot be empty", ErrInvalidIdentity)
	}

	if strings.ContainsAny(identity, " \t\n") {
		return fmt.Errorf("%w: identity must not contain whitespace", ErrInvalidIdentity)
	}

	return nil
}

// ValidateDisplayName validates the mutable presentation name.
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidDisplayName)
	}

	if len(name) > MaxDisplayNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidDisplayName, MaxDisplayNameLength)
	}

	return nil
}

// ValidateSecret validates the clear-text transaction secret against the
// configured format: exactly digits numeric characters.
func ValidateSecret(secret string, digits int) error {
	if digits <= 0 {
		digits = DefaultSecretDigits
	}

	if len(secret) != digits {
		return fmt.Errorf("%w: must be exactly %d digits", ErrInvalidSecret, digits)
	}

	for _, r := range secret {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: must contain only digits", ErrInvalidSecret)
		}
	}

	return nil
}

// ValidateAmount validates a transfer amount: positive and integral in minor
// units. Fractional-currency input is rejected, never rounded here.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !amount.IsInteger() {
		return fmt.Errorf("%w: fractional minor units are not representable", ErrInvalidAmount)
	}

	return nil
}

// ValidateSeedBalance validates a provisioning seed: zero or a positive whole
// number of minor units.
func ValidateSeedBalance(seed decimal.Decimal) error {
	if seed.IsNegative() {
		return ErrNegativeSeed
	}

	if !seed.IsInteger() {
		return fmt.Errorf("%w: fractional minor units are not representable", ErrInvalidAmount)
	}

	return nil
}
