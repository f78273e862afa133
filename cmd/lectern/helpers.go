package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lectern/internal/tracking"
)

var titleCaser = cases.Title(language.English)

// humanizeLabel turns identifiers like "summary_text" into "Summary Text".
func humanizeLabel(value string) string {
	return titleCaser.String(strings.ReplaceAll(value, "_", " "))
}

// stdoutIsTerminal reports whether stdout is an interactive terminal. Piped
// output gets JSON instead of tables.
func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func formatSubTask(sub tracking.SubTask) string {
	label := string(sub.Status)
	if label == "" {
		label = "pending"
	}
	if sub.Status == tracking.StatusFailed && sub.Error != "" {
		return fmt.Sprintf("%s (%s)", label, sub.Error)
	}
	return label
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := time.Since(t).Round(time.Second)
	if age < 0 {
		age = 0
	}
	return age.String()
}

func sessionRows(sessions []*tracking.Session) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, session := range sessions {
		state := "processing"
		switch {
		case session.Cancelled:
			state = "cancelled"
		case session.Completed:
			state = "completed"
		}
		rows = append(rows, []string{
			session.VideoID,
			state,
			formatSubTask(session.Transcript),
			fmt.Sprintf("%d", len(session.Content)),
			formatAge(session.StartTime),
		})
	}
	return rows
}
