package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lectern/internal/dispatch"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and maintain the task queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueStatus(ctx, cmd)
		},
	}
	cmd.AddCommand(newQueueStatusCommand(ctx))
	cmd.AddCommand(newQueueRetryCommand(ctx))
	cmd.AddCommand(newQueueCleanupCommand(ctx))
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counts and scheduler state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueStatus(ctx, cmd)
		},
	}
}

func runQueueStatus(ctx *commandContext, cmd *cobra.Command) error {
	client, err := ctx.client()
	if err != nil {
		return err
	}

	var status dispatch.Status
	if err := client.get(cmd.Context(), "/api/queue", &status); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !stdoutIsTerminal() {
		return printJSON(out, status)
	}

	state := "idle"
	if status.Active {
		state = "running"
	}
	rows := [][]string{
		{"Queued", strconv.Itoa(status.Queued)},
		{"Processing", strconv.Itoa(status.Processing)},
		{"Completed", strconv.Itoa(status.Completed)},
		{"Failed", strconv.Itoa(status.Failed)},
		{"Total", strconv.Itoa(status.Total)},
	}
	fmt.Fprintf(out, "Scheduler: %s\n", state)
	fmt.Fprintln(out, renderTable([]string{"Status", "Items"}, rows, []columnAlignment{alignLeft, alignRight}))
	return nil
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Requeue failed tasks for another attempt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			var result struct {
				Retried int64 `json:"retried"`
			}
			if err := client.post(cmd.Context(), "/api/queue/retry", nil, &result); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d failed task(s)\n", result.Retried)
			return nil
		},
	}
}

func newQueueCleanupCommand(ctx *commandContext) *cobra.Command {
	var maxAgeHours int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			path := fmt.Sprintf("/api/queue/cleanup?maxAgeHours=%d", maxAgeHours)
			var result struct {
				Removed int64 `json:"removed"`
			}
			if err := client.post(cmd.Context(), path, nil, &result); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed task(s)\n", result.Removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxAgeHours, "max-age-hours", 24, "Remove completed tasks older than this many hours")
	return cmd
}
