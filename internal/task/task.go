package task

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Type identifies a schedulable unit of work.
type Type string

const (
	TypeExtractMetadata    Type = "extract_metadata"
	TypeExtractTranscript  Type = "extract_transcript"
	TypeGenerateSummary    Type = "generate_summary"
	TypeGenerateTitles     Type = "generate_titles"
	TypeGenerateThumbnails Type = "generate_thumbnails"
	TypeGenerateContent    Type = "generate_content"
)

var knownTypes = map[Type]struct{}{
	TypeExtractMetadata:    {},
	TypeExtractTranscript:  {},
	TypeGenerateSummary:    {},
	TypeGenerateTitles:     {},
	TypeGenerateThumbnails: {},
	TypeGenerateContent:    {},
}

// ParseType converts a string into a known task Type.
func ParseType(value string) (Type, bool) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := knownTypes[normalized]
	return normalized, ok
}

// UpdatesTranscript reports whether completing this task type transitions the
// transcript sub-status of a processing session.
func (t Type) UpdatesTranscript() bool {
	return t == TypeExtractTranscript
}

// UpdatesContent reports whether completing this task type transitions a
// content sub-status of a processing session.
func (t Type) UpdatesContent() bool {
	switch t {
	case TypeGenerateSummary, TypeGenerateTitles, TypeGenerateThumbnails, TypeGenerateContent:
		return true
	default:
		return false
	}
}

// Payload carries the per-task arguments persisted with a queue item.
type Payload struct {
	UserID      string            `json:"user_id,omitempty"`
	ContentType string            `json:"content_type,omitempty"`
	SourceURL   string            `json:"source_url,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Encode serializes the payload for queue storage.
func (p Payload) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode task payload: %w", err)
	}
	return string(data), nil
}

// DecodePayload deserializes a payload stored with a queue item. An empty
// string yields a zero payload.
func DecodePayload(raw string) (Payload, error) {
	var payload Payload
	if strings.TrimSpace(raw) == "" {
		return payload, nil
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Payload{}, fmt.Errorf("decode task payload: %w", err)
	}
	return payload, nil
}

// Request is the unit of work handed to an Executor.
type Request struct {
	VideoID string
	Type    Type
	Payload Payload
}

// ContentType resolves the content type this request produces: the payload
// value when present, otherwise the default bound to the task type.
func (r Request) ContentType() string {
	if r.Payload.ContentType != "" {
		return r.Payload.ContentType
	}
	return r.Type.DefaultContentType()
}

// DefaultContentType returns the artifact type a task produces when the
// payload does not name one explicitly.
func (t Type) DefaultContentType() string {
	switch t {
	case TypeGenerateSummary:
		return "summary_text"
	case TypeGenerateTitles:
		return "titles"
	case TypeGenerateThumbnails:
		return "thumbnails"
	default:
		return ""
	}
}

// Outcome reports a successful execution.
type Outcome struct {
	// Result holds the produced artifact or a reference to it.
	Result string
	// Provider names the backend that produced the result.
	Provider string
}

// Executor runs one task. Implementations may take seconds to tens of seconds
// and must honor context cancellation; the orchestrator assumes nothing about
// their behavior beyond the outcome contract.
type Executor interface {
	Execute(ctx context.Context, req Request) (Outcome, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, req Request) (Outcome, error)

func (f ExecutorFunc) Execute(ctx context.Context, req Request) (Outcome, error) {
	return f(ctx, req)
}
