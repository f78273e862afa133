// Package fanout pushes session status snapshots to every live connection
// owned by a user.
//
// The hub is a plain registry composed with the tracker (it implements
// tracking.Notifier); delivery failure on any connection unregisters that
// connection only and never affects the underlying task or session.
package fanout
