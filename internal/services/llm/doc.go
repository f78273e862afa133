// Package llm wraps an OpenAI-compatible chat-completions endpoint with
// bounded retries and exponential backoff. Generation executors use it to
// produce summaries, study guides, quizzes, and title suggestions from a
// video transcript.
package llm
