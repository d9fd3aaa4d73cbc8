// Package store provides SQLite-backed durable storage for weave sessions.
//
// Each session persists exactly what an engine needs to be rebuilt
// verbatim:
//   - Sessions: id, display name and the union text
//   - Revisions: the append-only revision log, one row per revision
//
// # Critical Patterns
//
// Verbatim persistence
//   - Revisions are stored as they were produced; nothing is recomputed on
//     load. engine.Restore checks the log invariants.
//   - Subsets are stored as canonical JSON run-length arrays
//     (see subset.Subset.Runs).
//
// Append-only log
//   - AppendRevision inserts the revision and replaces the union text in
//     one transaction.
//   - The caller states the log index it is appending at; a mismatch with
//     the stored revision count fails with ErrStaleAppend instead of
//     silently forking the log.
//
// Deterministic query results
//   - Revisions are read ORDER BY seq ASC; sessions ORDER BY id COLLATE BINARY.
//   - Empty results are empty slices, never nil.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Deleting a session deletes its revisions
package store
