package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lectern/internal/tracking"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var videoID string
	var recordID string
	var contentTypes []string

	cmd := &cobra.Command{
		Use:   "import <url>",
		Short: "Start processing a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			body := map[string]any{
				"videoId":       videoID,
				"videoRecordId": recordID,
				"userId":        userID,
				"url":           args[0],
				"contentTypes":  contentTypes,
			}
			var session tracking.Session
			if err := client.post(cmd.Context(), "/api/videos", body, &session); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Processing started for %s (%d content types)\n",
				session.VideoID, len(session.Content))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Owner user id")
	cmd.Flags().StringVar(&videoID, "video", "", "Video id to track the import under")
	cmd.Flags().StringVar(&recordID, "record", "", "External video record id")
	cmd.Flags().StringSliceVar(&contentTypes, "content", nil, "Content types to generate (default: all supported)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("video")
	return cmd
}
