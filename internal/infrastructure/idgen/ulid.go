// Package idgen generates the time-ordered IDs used for ledger entries and
// transfer references.
package idgen

import (
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator implements usecase.IDGenerator with ULIDs: millisecond
// timestamp plus random suffix, so IDs sort by creation time and collide with
// negligible probability.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
