// Package logging builds the slog loggers used across lectern.
//
// Two output formats are supported: a human-oriented console handler that
// collapses the component attribute into a prefix, and a JSON handler for
// machine consumption. Helper constructors mirror slog attribute functions so
// call sites stay terse, and WithContext derives standardized fields
// (video_id, task_type, correlation_id) from a request context.
package logging
