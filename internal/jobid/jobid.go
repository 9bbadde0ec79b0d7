// Package jobid generates identifiers for catalog jobs.
package jobid

import "github.com/google/uuid"

// Generator produces unique job IDs.
// Implemented by UUIDv7Generator (production) and testutil generators (tests).
type Generator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 job IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, so catalog jobs
// sort by registration time when listed by ID.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
