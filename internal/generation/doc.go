// Package generation implements the concrete task executors: metadata and
// transcript extraction backed by the video platform, and study-artifact
// generation backed by the chat-completions client. Extracted material flows
// between stages through an in-process Library.
package generation
