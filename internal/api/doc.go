// Package api serves the daemon's HTTP surface: video import, session status
// reads, cancellation, queue maintenance, and a per-user server-sent-events
// stream carrying live session updates.
package api
