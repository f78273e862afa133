// Package orchestrator composes the processing pipeline: the status tracker,
// the notification fanout hub, and the task dispatcher. It is the single
// entry point the daemon and the HTTP API use to start, observe, and cancel
// video processing.
package orchestrator
