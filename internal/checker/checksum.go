package checker

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// checksumModulus bounds the digest so it round-trips losslessly through
// the ledger's decimal text format.
const checksumModulus = 100_000_000

// Compute derives the integrity value for a ledger row from its ordered
// non-checksum cells. Deterministic: equal cells always produce equal
// values, and the stored checksum itself never feeds the digest.
func Compute(cells []string) float64 {
	h := sha256.New()
	for _, c := range cells {
		h.Write([]byte(c))
		h.Write([]byte{0x1f})
	}
	sum := h.Sum(nil)
	return float64(binary.BigEndian.Uint64(sum[:8]) % checksumModulus)
}

// State is the outcome of comparing a stored checksum with a recomputed one.
type State int

const (
	// StateUnset means the row has never been checksummed: validate in
	// full and compute.
	StateUnset State = iota
	// StateMatch means the row was already materialized: skip its
	// side effects.
	StateMatch
	// StateMismatch means the row was edited after being checksummed
	// without going through the pipeline.
	StateMismatch
)

// Compare classifies a stored checksum against a recomputed value.
func Compare(stored, computed float64) State {
	switch {
	case math.IsNaN(stored):
		return StateUnset
	case stored == computed:
		return StateMatch
	}
	return StateMismatch
}
