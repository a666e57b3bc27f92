package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cognia-dev/cognia-launcher/internal/download"
)

// newDownloadCommand creates the "download" command tree backing
// spec.md §4.2's public contract: add/pause/resume/cancel/list against
// the shared Manager.
func newDownloadCommand(manager *download.Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Manage queued and in-flight downloads",
	}

	cmd.AddCommand(
		newDownloadAddCommand(manager),
		newDownloadListCommand(manager),
		newDownloadPauseCommand(manager),
		newDownloadResumeCommand(manager),
		newDownloadCancelCommand(manager),
	)

	return cmd
}

func newDownloadAddCommand(manager *download.Manager) *cobra.Command {
	var name, checksum string

	cmd := &cobra.Command{
		Use:   "add <url> <dest-path>",
		Short: "Queue a new download",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, dest := args[0], args[1]
			if name == "" {
				name = dest
			}
			id, err := manager.AddTaskWithChecksum(url, dest, name, checksum)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for the task (defaults to dest-path)")
	cmd.Flags().StringVar(&checksum, "checksum", "", "Expected sha256 hex checksum, verified on completion")
	return cmd
}

func newDownloadListCommand(manager *download.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every known download task",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks := manager.List()
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No download tasks.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATE\tDOWNLOADED\tTOTAL")
			for _, t := range tasks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", t.ID, t.Name, t.State, t.DownloadedBytes, t.TotalBytes)
			}
			return w.Flush()
		},
	}
}

func newDownloadPauseCommand(manager *download.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "pause <task-id>",
		Short: "Pause a queued or in-progress download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return manager.Pause(args[0])
		},
	}
}

func newDownloadResumeCommand(manager *download.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <task-id>",
		Short: "Resume a paused or recoverably-failed download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return manager.Resume(args[0])
		},
	}
}

func newDownloadCancelCommand(manager *download.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <task-id>",
		Short: "Cancel a download and discard its partial bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return manager.Cancel(args[0])
		},
	}
}
