package testsupport

import (
	"context"
	"testing"

	"lectern/internal/config"
	"lectern/internal/queue"
	"lectern/internal/task"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustEnqueue inserts a queue item for tests using the provided store.
func MustEnqueue(t testing.TB, store *queue.Store, videoID string, taskType task.Type, priority int) *queue.Item {
	t.Helper()

	item, err := store.Enqueue(context.Background(), videoID, string(taskType), priority, "")
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return item
}
