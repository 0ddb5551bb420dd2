// Package store provides the persistence backends for the run artifact
// ledger behind the narrow ledger.Store interface.
//
// Three backends exist:
//
//   - FSStore (default): one JSON file per artifact under a
//     date-partitioned directory tree, written with temp-file plus atomic
//     rename. Concurrent readers never observe a half-written record.
//   - SQLiteStore: the transactional alternative for deployments where
//     concurrent writes to the same run id become observable.
//   - MemoryStore: testing only.
//
// Every backend validates run ids against the fixed pattern before a
// filesystem path or SQL statement is constructed, returns NotFoundError
// for unknown ids, recovers (logs and skips) corrupt records instead of
// propagating decode failures, and reports I/O failures as StorageError
// results rather than panics so the feasibility gate can still report the
// decision it attempted to persist.
//
// Two concurrent Put calls for the same run id are last-writer-wins. Run
// ids are generated uniquely so this should not occur; if it becomes
// observable in a deployment, switch to the SQLite backend.
package store
