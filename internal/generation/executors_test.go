package generation_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lectern/internal/generation"
	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/services/ytmeta"
	"lectern/internal/task"
)

type fakeMetadataClient struct {
	info       *ytmeta.VideoInfo
	transcript string
	err        error
}

func (c *fakeMetadataClient) GetVideo(ctx context.Context, url string) (*ytmeta.VideoInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.info, nil
}

func (c *fakeMetadataClient) FetchTranscript(ctx context.Context, video *ytmeta.VideoInfo) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.transcript, nil
}

type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (c *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	c.prompts = append(c.prompts, userPrompt)
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *fakeCompleter) Model() string { return "fake-model" }

func TestMetadataExecutorStoresRecord(t *testing.T) {
	library := generation.NewLibrary()
	client := &fakeMetadataClient{info: &ytmeta.VideoInfo{
		ID:       "abc",
		Title:    "Intro to Graphs",
		Author:   "Prof. Example",
		Duration: 10 * time.Minute,
	}}
	executor := generation.NewMetadataExecutor(client, library, logging.NewNop())

	outcome, err := executor.Execute(context.Background(), task.Request{
		VideoID: "vid-1",
		Type:    task.TypeExtractMetadata,
		Payload: task.Payload{SourceURL: "https://example.com/watch?v=abc"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if outcome.Result != "Intro to Graphs" || outcome.Provider != "youtube" {
		t.Fatalf("unexpected outcome: %#v", outcome)
	}

	record, ok := library.Get("vid-1")
	if !ok || record.Title != "Intro to Graphs" || record.Author != "Prof. Example" {
		t.Fatalf("library record = %#v, %v", record, ok)
	}
}

func TestMetadataExecutorRequiresSourceURL(t *testing.T) {
	executor := generation.NewMetadataExecutor(&fakeMetadataClient{}, generation.NewLibrary(), logging.NewNop())

	_, err := executor.Execute(context.Background(), task.Request{VideoID: "vid-1", Type: task.TypeExtractMetadata})
	if err == nil {
		t.Fatal("expected error for missing source url")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error not classified as validation: %v", err)
	}
}

func TestTranscriptExecutorStoresTranscript(t *testing.T) {
	library := generation.NewLibrary()
	client := &fakeMetadataClient{
		info:       &ytmeta.VideoInfo{ID: "abc"},
		transcript: "line one\nline two",
	}
	executor := generation.NewTranscriptExecutor(client, library, logging.NewNop())

	_, err := executor.Execute(context.Background(), task.Request{
		VideoID: "vid-1",
		Type:    task.TypeExtractTranscript,
		Payload: task.Payload{SourceURL: "https://example.com/watch?v=abc"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	record, ok := library.Get("vid-1")
	if !ok || record.Transcript != "line one\nline two" {
		t.Fatalf("library record = %#v, %v", record, ok)
	}
}

func TestTranscriptExecutorUsesLibrarySourceURL(t *testing.T) {
	library := generation.NewLibrary()
	library.PutMetadata("vid-1", "Title", "Author", "https://example.com/watch?v=abc", time.Minute)
	client := &fakeMetadataClient{info: &ytmeta.VideoInfo{ID: "abc"}, transcript: "text"}
	executor := generation.NewTranscriptExecutor(client, library, logging.NewNop())

	if _, err := executor.Execute(context.Background(), task.Request{
		VideoID: "vid-1",
		Type:    task.TypeExtractTranscript,
	}); err != nil {
		t.Fatalf("Execute without payload url: %v", err)
	}
}

func TestContentExecutorWaitsForTranscript(t *testing.T) {
	library := generation.NewLibrary()
	executor := generation.NewContentExecutor(&fakeCompleter{}, library, logging.NewNop())

	_, err := executor.Execute(context.Background(), task.Request{
		VideoID: "vid-1",
		Type:    task.TypeGenerateContent,
		Payload: task.Payload{ContentType: "quiz"},
	})
	if err == nil {
		t.Fatal("expected error when transcript is missing")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("missing transcript not classified transient: %v", err)
	}
}

func TestContentExecutorGeneratesArtifact(t *testing.T) {
	library := generation.NewLibrary()
	library.PutMetadata("vid-1", "Intro to Graphs", "Prof. Example", "url", time.Minute)
	library.PutTranscript("vid-1", "graphs are everywhere")
	completer := &fakeCompleter{response: "Q1: what is a graph?"}
	executor := generation.NewContentExecutor(completer, library, logging.NewNop())

	outcome, err := executor.Execute(context.Background(), task.Request{
		VideoID: "vid-1",
		Type:    task.TypeGenerateContent,
		Payload: task.Payload{ContentType: "quiz"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if outcome.Result != "Q1: what is a graph?" || outcome.Provider != "fake-model" {
		t.Fatalf("unexpected outcome: %#v", outcome)
	}
	if len(completer.prompts) != 1 {
		t.Fatalf("completer invoked %d times", len(completer.prompts))
	}
	prompt := completer.prompts[0]
	if !strings.Contains(prompt, "graphs are everywhere") || !strings.Contains(prompt, "Intro to Graphs") {
		t.Fatalf("prompt missing transcript or title: %q", prompt)
	}
}

func TestContentExecutorRequiresContentType(t *testing.T) {
	library := generation.NewLibrary()
	library.PutTranscript("vid-1", "text")
	executor := generation.NewContentExecutor(&fakeCompleter{}, library, logging.NewNop())

	_, err := executor.Execute(context.Background(), task.Request{
		VideoID: "vid-1",
		Type:    task.TypeGenerateContent,
	})
	if err == nil {
		t.Fatal("expected error for missing content type")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error not classified as validation: %v", err)
	}
}
