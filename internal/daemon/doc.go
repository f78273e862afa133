// Package daemon enforces single-instance execution with a file lock and
// ties the orchestrator and HTTP API to one shared lifecycle.
package daemon
