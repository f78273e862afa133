// Package task defines the executor contract between the queue runtime and
// the concrete work implementations (metadata extraction, transcript
// retrieval, artifact generation).
//
// The dispatcher resolves executors through a Registry so the orchestration
// core stays independent of any particular backend.
package task
