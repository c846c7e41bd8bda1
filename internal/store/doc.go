// Package store provides the SQLite-backed run log of the batch driver.
//
// Every `ueshint generate --db` invocation records:
//   - Runs: one row per batch (input, output, policy, renderer, counts)
//   - Rows: one row per workload query (status, hint, directive set)
//
// # Patterns
//
// Idempotent writes:
//   - runs.id and (run_rows.run_id, run_rows.seq) are primary keys
//   - Inserts use ON CONFLICT DO NOTHING, so a replayed write is a no-op
//
// Deterministic reads:
//   - Rows are ordered by seq (input position), NEVER by timestamps
//   - Runs are ordered by id; run IDs are UUIDv7 and sort by creation time
//
// Directive sets are stored as canonical JSON together with their
// fingerprint (see internal/canonical), so identical selections produce
// identical bytes across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
