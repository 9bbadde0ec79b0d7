// Package pset provides the typed, serializable view of a configured
// parameter set.
//
// A Set is what a parameter record describes itself as: the registry label,
// the plugin the label is bound to, and an ordered list of typed entries.
// The package imports nothing internal, so every other package can depend
// on it.
//
// Key constraints:
//   - Only three parameter types exist: int32, double and string
//   - Canonical JSON never contains JSON numbers; every value is carried as
//     text next to its type tag, so doubles hash identically on every platform
//   - Entry order is significant for rendering but not for identity
package pset
