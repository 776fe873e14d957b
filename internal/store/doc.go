// Package store provides the SQLite-backed run ledger for treemig.
//
// The ledger is append-only:
//   - Runs: one row per migrate invocation, with final counts
//   - Records: one row per non-empty input line, keyed by (run_id, line)
//
// Record rows carry content digests (see ir.Digest) of the input tree and
// of the migrated output, so identical trees can be found across runs
// without storing the trees themselves.
//
// All list queries order deterministically: runs by started_at then id,
// records by line.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
