package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"lectern/internal/services/llm"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func completionBody(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func newTestClient(url string, opts ...llm.Option) *llm.Client {
	cfg := llm.Config{APIKey: "test-key", BaseURL: url, Model: "test-model"}
	opts = append(opts, llm.WithSleeper(noSleep))
	return llm.NewClient(cfg, opts...)
}

func TestCompleteReturnsContent(t *testing.T) {
	var gotAuth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 2 {
			t.Errorf("unexpected request: %#v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("a fine summary")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "a fine summary" {
		t.Fatalf("content = %q", content)
	}
	if auth := gotAuth.Load(); auth != "Bearer test-key" {
		t.Fatalf("authorization header = %v", auth)
	}
}

func TestCompleteRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(completionBody("after retry")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "after retry" {
		t.Fatalf("content = %q", content)
	}
	if calls.Load() != 2 {
		t.Fatalf("server called %d times, want 2", calls.Load())
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad prompt"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls.Load() != 1 {
		t.Fatalf("server called %d times, want 1", calls.Load())
	}
}

func TestCompleteExhaustsRetriesOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, llm.WithRetry(3, time.Millisecond, time.Millisecond))
	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls.Load() != 3 {
		t.Fatalf("server called %d times, want 3", calls.Load())
	}
}

func TestCompleteFallsBackToDeltaContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"delta":{"content":"streamed text"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "streamed text" {
		t.Fatalf("content = %q", content)
	}
}

func TestCompleteRejectsEmptyPrompts(t *testing.T) {
	client := newTestClient("http://127.0.0.1:0")
	if _, err := client.Complete(context.Background(), "", "user"); err == nil {
		t.Fatal("expected error for empty system prompt")
	}
	if _, err := client.Complete(context.Background(), "system", " "); err == nil {
		t.Fatal("expected error for empty user prompt")
	}
}

func TestCompleteRejectsEmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, llm.WithRetry(2, time.Millisecond, time.Millisecond))
	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error for empty completion")
	}
}
