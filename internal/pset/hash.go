package pset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainParameterSet prefixes every parameter-set hash. The version suffix
// leaves room for changing the canonical form.
const DomainParameterSet = "btagcfg/pset/v1"

// hashWithDomain computes SHA256(domain || 0x00 || data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ID returns the content-addressed identity of the set. Two sets with the
// same label, plugin and parameter values share an ID regardless of entry
// order.
func (s Set) ID() (string, error) {
	canonical, err := s.Canonical()
	if err != nil {
		return "", fmt.Errorf("parameter set ID: %w", err)
	}
	return hashWithDomain(DomainParameterSet, canonical), nil
}

// MustID is like ID but panics on error.
// Use only when the set is known to be well formed.
func (s Set) MustID() string {
	id, err := s.ID()
	if err != nil {
		panic(err)
	}
	return id
}
