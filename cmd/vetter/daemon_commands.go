package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"vetter/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, resp)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				runningKind := statusError
				runningMsg := "stopped"
				if resp.Running {
					runningKind = statusOK
					runningMsg = fmt.Sprintf("pid %d", resp.PID)
				}
				fmt.Fprintln(out, renderStatusLine("Daemon", runningKind, runningMsg, colorize))
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, resp.DatabasePath, colorize))
				fmt.Fprintln(out, renderStatusLine("Socket", statusInfo, resp.SocketPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Last sweep", statusInfo, formatSweepTime(resp.LastSweep), colorize))
				fmt.Fprintln(out, renderStatusLine("Processed", statusInfo, fmt.Sprintf("%d", resp.Processed), colorize))
				if resp.LastError != "" {
					fmt.Fprintln(out, renderStatusLine("Last error", statusWarn, resp.LastError, colorize))
				}

				if len(resp.QueueStats) > 0 {
					names := make([]string, 0, len(resp.QueueStats))
					for name := range resp.QueueStats {
						names = append(names, name)
					}
					sort.Strings(names)
					for _, name := range names {
						fmt.Fprintln(out, renderStatusLine("Queue "+name, statusInfo, fmt.Sprintf("%d", resp.QueueStats[name]), colorize))
					}
				}
				return nil
			})
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, resp)
				}
				if resp.Message != "" {
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
				}
				return nil
			})
		},
	}
}
