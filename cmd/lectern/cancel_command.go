package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <video-id>",
		Short: "Cancel processing for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			path := "/api/videos/" + url.PathEscape(args[0]) + "/cancel"
			if err := client.post(cmd.Context(), path, nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled processing for %s\n", args[0])
			return nil
		},
	}
}
