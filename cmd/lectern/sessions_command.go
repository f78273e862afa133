package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"lectern/internal/tracking"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions <user-id>",
		Short: "List a user's in-flight and recent sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			var sessions []*tracking.Session
			path := "/api/users/" + url.PathEscape(args[0]) + "/sessions"
			if err := client.get(cmd.Context(), path, &sessions); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !stdoutIsTerminal() {
				return printJSON(out, sessions)
			}
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No active or recent sessions.")
				return nil
			}

			headers := []string{"Video", "State", "Transcript", "Content Tasks", "Age"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight}
			fmt.Fprintln(out, renderTable(headers, sessionRows(sessions), aligns))
			return nil
		},
	}
}
