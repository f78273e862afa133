package main

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/spf13/cobra"

	"lectern/internal/tracking"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <video-id>",
		Short: "Show the processing status of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			var session tracking.Session
			path := "/api/videos/" + url.PathEscape(args[0]) + "/status"
			if err := client.get(cmd.Context(), path, &session); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !stdoutIsTerminal() {
				return printJSON(out, &session)
			}

			rows := [][]string{
				{"Transcript", formatSubTask(session.Transcript)},
			}
			contentTypes := make([]string, 0, len(session.Content))
			for contentType := range session.Content {
				contentTypes = append(contentTypes, contentType)
			}
			sort.Strings(contentTypes)
			for _, contentType := range contentTypes {
				rows = append(rows, []string{humanizeLabel(contentType), formatSubTask(session.Content[contentType])})
			}

			state := "processing"
			switch {
			case session.Cancelled:
				state = "cancelled"
			case session.Completed:
				state = "completed"
			}
			fmt.Fprintf(out, "Video %s: %s (started %s ago)\n", session.VideoID, state, formatAge(session.StartTime))
			fmt.Fprintln(out, renderTable([]string{"Sub-task", "Status"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}
