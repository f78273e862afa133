package main

import (
	"strings"
	"testing"
	"time"

	"lectern/internal/tracking"
)

func TestHumanizeLabel(t *testing.T) {
	cases := map[string]string{
		"summary_text": "Summary Text",
		"quiz":         "Quiz",
		"study_guide":  "Study Guide",
	}
	for input, want := range cases {
		if got := humanizeLabel(input); got != want {
			t.Errorf("humanizeLabel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatSubTask(t *testing.T) {
	if got := formatSubTask(tracking.SubTask{}); got != "pending" {
		t.Fatalf("empty sub-task = %q", got)
	}
	if got := formatSubTask(tracking.SubTask{Status: tracking.StatusCompleted}); got != "completed" {
		t.Fatalf("completed sub-task = %q", got)
	}
	got := formatSubTask(tracking.SubTask{Status: tracking.StatusFailed, Error: "backend down"})
	if !strings.Contains(got, "failed") || !strings.Contains(got, "backend down") {
		t.Fatalf("failed sub-task = %q", got)
	}
}

func TestSessionRows(t *testing.T) {
	sessions := []*tracking.Session{
		{
			VideoID:    "vid-1",
			Completed:  true,
			StartTime:  time.Now().Add(-time.Minute),
			Transcript: tracking.SubTask{Status: tracking.StatusCompleted},
			Content:    map[string]tracking.SubTask{"quiz": {Status: tracking.StatusCompleted}},
		},
		{
			VideoID:   "vid-2",
			Cancelled: true,
			Completed: true,
		},
	}

	rows := sessionRows(sessions)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][0] != "vid-1" || rows[0][1] != "completed" {
		t.Fatalf("row 0 = %v", rows[0])
	}
	if rows[1][1] != "cancelled" {
		t.Fatalf("row 1 state = %q, want cancelled", rows[1][1])
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only-a"}}, nil)
	if !strings.Contains(out, "only-a") {
		t.Fatalf("rendered table missing cell: %q", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("renderTable with no headers should return empty string")
	}
}
