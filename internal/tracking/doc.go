// Package tracking models per-video processing sessions as a composite state
// machine: one transcript sub-task plus one sub-task per supported content
// type.
//
// A session completes exactly when the transcript and every content entry
// reach a terminal status (completed, failed, skipped, or cancelled).
// Completion is monotonic: once set, later updates are no-ops. Mutations
// targeting unknown videos are absorbed with a warning, since cleanup can
// legitimately race with late task callbacks.
//
// Completed sessions are removed after a TTL; cancelled sessions after a
// short grace period. The cleanup timer handle is stored with the session and
// replaced on rearm, so reprocessing a video can never be deleted by a stale
// timer from its previous run.
package tracking
