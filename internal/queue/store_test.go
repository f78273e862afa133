package queue_test

import (
	"context"
	"testing"
	"time"

	"lectern/internal/queue"
	"lectern/internal/task"
	"lectern/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.Enqueue(ctx, "vid-1", string(task.TypeExtractMetadata), 10, `{"user_id":"user-1"}`)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != queue.StatusQueued {
		t.Fatalf("new item status = %q, want queued", item.Status)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.VideoID != "vid-1" || fetched.PayloadJSON != `{"user_id":"user-1"}` {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
}

func TestEnqueueValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.Enqueue(ctx, "", "extract_metadata", 1, ""); err == nil {
		t.Fatal("expected error for empty video id")
	}
	if _, err := store.Enqueue(ctx, "vid-1", "", 1, ""); err == nil {
		t.Fatal("expected error for empty task type")
	}
}

func TestNextQueuedOrdersByPriorityThenCreation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	// Insert A (low), B (high), C (high, later). Expect B, C, A.
	a := testsupport.MustEnqueue(t, store, "vid-a", task.TypeGenerateContent, 1)
	b := testsupport.MustEnqueue(t, store, "vid-b", task.TypeExtractMetadata, 10)
	time.Sleep(2 * time.Millisecond)
	c := testsupport.MustEnqueue(t, store, "vid-c", task.TypeExtractTranscript, 10)

	for i, wantID := range []int64{b.ID, c.ID, a.ID} {
		next, err := store.NextQueued(ctx)
		if err != nil {
			t.Fatalf("NextQueued #%d failed: %v", i, err)
		}
		if next == nil || next.ID != wantID {
			t.Fatalf("dequeue #%d = %#v, want id %d", i, next, wantID)
		}
		if err := store.MarkProcessing(ctx, next.ID); err != nil {
			t.Fatalf("MarkProcessing failed: %v", err)
		}
	}

	next, err := store.NextQueued(ctx)
	if err != nil {
		t.Fatalf("NextQueued on empty queue failed: %v", err)
	}
	if next != nil {
		t.Fatalf("expected empty queue, got %#v", next)
	}
}

func TestMarkProcessingRequiresQueuedStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.MustEnqueue(t, store, "vid-1", task.TypeGenerateContent, 1)
	if err := store.MarkProcessing(ctx, item.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := store.MarkProcessing(ctx, item.ID); err == nil {
		t.Fatal("expected error claiming an already-processing item")
	}
}

func TestRequeueIncrementsRetryCount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.MustEnqueue(t, store, "vid-1", task.TypeGenerateContent, 1)
	if err := store.MarkProcessing(ctx, item.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := store.Requeue(ctx, item.ID, 1, "transient failure"); err != nil {
		t.Fatalf("Requeue failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusQueued {
		t.Fatalf("requeued status = %q, want queued", fetched.Status)
	}
	if fetched.RetryCount != 1 {
		t.Fatalf("retry count = %d, want 1", fetched.RetryCount)
	}
	if fetched.ErrorMessage != "transient failure" {
		t.Fatalf("error message = %q", fetched.ErrorMessage)
	}
	if fetched.StartedAt != nil {
		t.Fatal("requeued item still has started_at")
	}
}

func TestRetryFailedResetsFailedItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	failed := testsupport.MustEnqueue(t, store, "vid-1", task.TypeGenerateContent, 1)
	if err := store.MarkProcessing(ctx, failed.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := store.Requeue(ctx, failed.ID, 3, "attempt 3"); err != nil {
		t.Fatalf("Requeue failed: %v", err)
	}
	if err := store.MarkProcessing(ctx, failed.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := store.MarkFailed(ctx, failed.ID, "permanent failure"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	completed := testsupport.MustEnqueue(t, store, "vid-2", task.TypeGenerateContent, 1)
	if err := store.MarkProcessing(ctx, completed.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := store.MarkCompleted(ctx, completed.ID); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	retried, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if retried != 1 {
		t.Fatalf("RetryFailed retried %d items, want 1", retried)
	}

	fetched, err := store.GetByID(ctx, failed.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusQueued {
		t.Fatalf("retried status = %q, want queued", fetched.Status)
	}
	if fetched.ErrorMessage != "" {
		t.Fatalf("error message not cleared: %q", fetched.ErrorMessage)
	}
	if fetched.RetryCount != 3 {
		t.Fatalf("retry count = %d, want preserved 3", fetched.RetryCount)
	}

	untouched, err := store.GetByID(ctx, completed.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if untouched.Status != queue.StatusCompleted {
		t.Fatalf("completed item status = %q after RetryFailed", untouched.Status)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.MustEnqueue(t, store, "vid-1", task.TypeGenerateContent, 1)
	if err := store.MarkProcessing(ctx, item.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if reset != 1 {
		t.Fatalf("reset %d items, want 1", reset)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusQueued {
		t.Fatalf("status after reset = %q, want queued", fetched.Status)
	}
}

func TestCountsSummaryAndCleanup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	queued := testsupport.MustEnqueue(t, store, "vid-1", task.TypeGenerateContent, 1)
	_ = queued
	done := testsupport.MustEnqueue(t, store, "vid-2", task.TypeGenerateContent, 1)
	if err := store.MarkProcessing(ctx, done.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := store.MarkCompleted(ctx, done.ID); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	counts, err := store.CountsSummary(ctx)
	if err != nil {
		t.Fatalf("CountsSummary failed: %v", err)
	}
	if counts.Queued != 1 || counts.Completed != 1 || counts.Total != 2 {
		t.Fatalf("unexpected counts: %#v", counts)
	}

	// A large max age keeps the fresh completed item.
	removed, err := store.Cleanup(ctx, time.Hour)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("Cleanup removed %d fresh items", removed)
	}

	// A tiny max age removes it.
	time.Sleep(5 * time.Millisecond)
	removed, err = store.Cleanup(ctx, time.Millisecond)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("Cleanup removed %d items, want 1", removed)
	}

	if _, err := store.Cleanup(ctx, 0); err == nil {
		t.Fatal("expected error for non-positive cleanup age")
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustEnqueue(t, store, "vid-1", task.TypeGenerateContent, 1)
	failed := testsupport.MustEnqueue(t, store, "vid-2", task.TypeGenerateContent, 1)
	if err := store.MarkProcessing(ctx, failed.ID); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := store.MarkFailed(ctx, failed.ID, "boom"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List returned %d items, want 2", len(all))
	}

	onlyFailed, err := store.List(ctx, queue.StatusFailed)
	if err != nil {
		t.Fatalf("List(failed) failed: %v", err)
	}
	if len(onlyFailed) != 1 || onlyFailed[0].ID != failed.ID {
		t.Fatalf("unexpected failed list: %#v", onlyFailed)
	}
}
