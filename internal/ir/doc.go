// Package ir provides the value layer shared by the predicate and tree
// packages.
//
// Comparison values carried by predicates are decoded into the sealed Value
// interface. ir imports nothing internal so every other package can depend
// on it.
//
// Key design constraints:
//   - Numbers keep their decimal text (json.Number) so re-encoding is verbatim
//   - Numeric equality is exact (rational comparison), never float64
//   - Object iteration uses SortedKeys for deterministic output
//   - Digests are computed over canonical JSON only (see canonical.go)
package ir
