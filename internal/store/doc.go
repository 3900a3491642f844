// Package store provides SQLite-backed durable storage for committed
// transactions.
//
// The store is an append-only log with:
//   - Sheets: id, name and display order of every sheet
//   - Transactions: each committed (forward, reverse) pair with its content
//     digest and a synced flag
//
// # Critical Patterns
//
// Logical ordering:
//   - Transactions are ordered by seq INTEGER, assigned on insert, never by
//     timestamps
//   - All reads use ORDER BY seq ASC so replays apply the log in commit order
//
// Idempotency:
//   - transactions.id is UNIQUE and writes use ON CONFLICT DO NOTHING, so
//     flushing the same transaction twice stores it once
//
// Integrity:
//   - Payloads are canonical JSON; the digest of the forward operations is
//     stored and re-checked on read
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
