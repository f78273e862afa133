package task_test

import (
	"context"
	"testing"

	"lectern/internal/task"
)

func TestParseType(t *testing.T) {
	if parsed, ok := task.ParseType(" Extract_Metadata "); !ok || parsed != task.TypeExtractMetadata {
		t.Fatalf("ParseType = %q, %v", parsed, ok)
	}
	if _, ok := task.ParseType("mystery_task"); ok {
		t.Fatal("ParseType accepted unknown type")
	}
	if _, ok := task.ParseType(""); ok {
		t.Fatal("ParseType accepted empty type")
	}
}

func TestTypeClassification(t *testing.T) {
	if !task.TypeExtractTranscript.UpdatesTranscript() {
		t.Fatal("extract_transcript should update the transcript status")
	}
	if task.TypeExtractMetadata.UpdatesTranscript() || task.TypeExtractMetadata.UpdatesContent() {
		t.Fatal("extract_metadata should not touch session sub-statuses")
	}
	for _, taskType := range []task.Type{
		task.TypeGenerateSummary,
		task.TypeGenerateTitles,
		task.TypeGenerateThumbnails,
		task.TypeGenerateContent,
	} {
		if !taskType.UpdatesContent() {
			t.Fatalf("%s should update a content status", taskType)
		}
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	payload := task.Payload{
		UserID:      "user-1",
		ContentType: "quiz",
		SourceURL:   "https://example.com/watch?v=abc",
		Extra:       map[string]string{"lang": "en"},
	}
	encoded, err := payload.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := task.DecodePayload(encoded)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if decoded.UserID != payload.UserID || decoded.ContentType != payload.ContentType {
		t.Fatalf("round trip mismatch: %#v", decoded)
	}
	if decoded.Extra["lang"] != "en" {
		t.Fatalf("extra map lost: %#v", decoded.Extra)
	}
}

func TestDecodePayloadEmpty(t *testing.T) {
	payload, err := task.DecodePayload("   ")
	if err != nil {
		t.Fatalf("DecodePayload empty: %v", err)
	}
	if payload.UserID != "" || payload.ContentType != "" || payload.SourceURL != "" || payload.Extra != nil {
		t.Fatalf("expected zero payload, got %#v", payload)
	}

	if _, err := task.DecodePayload("{not json"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestRequestContentTypeFallsBackToDefault(t *testing.T) {
	explicit := task.Request{Type: task.TypeGenerateContent, Payload: task.Payload{ContentType: "study_guide"}}
	if got := explicit.ContentType(); got != "study_guide" {
		t.Fatalf("explicit content type = %q", got)
	}

	implicit := task.Request{Type: task.TypeGenerateSummary}
	if got := implicit.ContentType(); got != "summary_text" {
		t.Fatalf("summary default content type = %q", got)
	}
	if got := (task.Request{Type: task.TypeGenerateTitles}).ContentType(); got != "titles" {
		t.Fatalf("titles default content type = %q", got)
	}
	if got := (task.Request{Type: task.TypeGenerateContent}).ContentType(); got != "" {
		t.Fatalf("generate_content without payload content type = %q, want empty", got)
	}
}

func TestRegistry(t *testing.T) {
	registry := task.NewRegistry()
	executor := task.ExecutorFunc(func(ctx context.Context, req task.Request) (task.Outcome, error) {
		return task.Outcome{Result: "ok"}, nil
	})

	registry.Register(task.TypeGenerateContent, executor)
	resolved, err := registry.Resolve(task.TypeGenerateContent)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	outcome, err := resolved.Execute(context.Background(), task.Request{})
	if err != nil || outcome.Result != "ok" {
		t.Fatalf("Execute = %#v, %v", outcome, err)
	}

	if _, err := registry.Resolve(task.TypeExtractMetadata); err == nil {
		t.Fatal("Resolve returned nil error for unregistered type")
	}

	types := registry.Types()
	if len(types) != 1 || types[0] != task.TypeGenerateContent {
		t.Fatalf("Types = %v", types)
	}
}
