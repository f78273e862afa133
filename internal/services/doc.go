// Package services holds the error taxonomy and context plumbing shared by
// task executors and the orchestration layer.
//
// Errors are classified with sentinel markers (validation, configuration,
// not_found, external_tool, transient) wrapped via Wrap; the dispatcher uses
// the classification to decide retry behavior and to populate the diagnostic
// metadata carried on status snapshots.
package services
