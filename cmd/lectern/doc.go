// Command lectern is the command-line client for the lectern daemon. It
// talks to the daemon's HTTP API to import videos, inspect session status,
// cancel processing, and maintain the task queue.
package main
