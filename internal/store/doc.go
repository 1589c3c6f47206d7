// Package store persists reelforge workspace state in SQLite.
//
// The database lives at <state_dir>/reelforge.db and holds three things: the
// manual workflow (stage pointer plus artifacts as JSON), the asset panel's
// per-keyword states, and the history of pipeline sessions observed by
// `pipeline watch`. Writes run in transactions retried on SQLITE_BUSY so
// concurrent CLI invocations against one workspace do not fail spuriously.
//
// The schema is versioned; a mismatch surfaces ErrSchemaMismatch rather than
// attempting a migration.
package store
