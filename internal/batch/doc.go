// Package batch migrates line-oriented record streams.
//
// Each input line holds delimiter-separated columns, one of which is an
// old-form tree as JSON. The driver replaces that column with the migrated
// new-form tree and writes the line out. Output order always matches input
// order, regardless of how many workers migrate records in parallel.
//
// # Modes
//
//   - fail-fast: stop at the first failing record. Lines before it are
//     written; the failing line and everything after it are not.
//   - skip: drop failing records, log each one, and keep going. The run
//     still reports failure if any record was dropped.
//
// Empty lines are copied through and are not records.
package batch
