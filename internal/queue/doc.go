// Package queue persists task items in SQLite and exposes helpers for driving
// their lifecycle.
//
// The Store manages the database connection, schema migrations (embedded,
// applied with goose on open), dequeue selection (priority descending, then
// creation time ascending), retry bookkeeping, stats queries, and maintenance
// of old completed items.
//
// The database is treated as transient storage for in-flight work rather than
// a long-term archive. Treat this package as the single source of truth for
// queue semantics; new statuses or columns require a new migration file.
package queue
