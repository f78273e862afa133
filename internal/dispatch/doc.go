// Package dispatch runs the task queue: it claims queued items in priority
// order, executes them on a bounded worker pool, retries transient failures
// up to a capped count, and reflects final outcomes into the status tracker.
//
// The scheduler polls on a short interval while work exists and backs off to
// an idle interval when the queue drains; Enqueue wakes it immediately. When
// the SQLite backing store is unreachable, enqueue degrades to synchronous
// direct execution rather than failing the caller.
package dispatch
