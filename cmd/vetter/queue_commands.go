package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vetter/internal/ipc"
	"vetter/internal/store"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the check queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List check-queue entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				var statuses []store.Status
				for _, raw := range listStatuses {
					parsed, ok := store.ParseStatus(raw)
					if !ok {
						return fmt.Errorf("unknown status %q", raw)
					}
					statuses = append(statuses, parsed)
				}

				entries, err := st.ListEntries(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					created := ""
					if !entry.CreatedAt.IsZero() {
						created = entry.CreatedAt.Local().Format("2006-01-02 15:04")
					}
					rows = append(rows, []string{
						strconv.FormatInt(entry.ID, 10),
						strconv.FormatInt(entry.SubjectID, 10),
						entry.SubjectTitle,
						string(entry.Status),
						created,
					})
				}
				out := renderTable(
					[]string{"ID", "Subject", "Title", "Status", "Created"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (pending, processing, done, failed)")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check shared database health (tables, integrity, counts)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				health, err := st.CheckHealth(cmd.Context())
				if err != nil && health.Error == "" {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, health)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database path: %s\n", health.DBPath)
				fmt.Fprintf(out, "Database exists: %s\n", yesNo(health.DatabaseExists))
				fmt.Fprintf(out, "Readable: %s\n", yesNo(health.DatabaseReadable))
				if len(health.TablesPresent) > 0 {
					tables := append([]string(nil), health.TablesPresent...)
					sort.Strings(tables)
					fmt.Fprintf(out, "Tables: %s\n", strings.Join(tables, ", "))
				}
				if len(health.MissingTables) > 0 {
					missing := append([]string(nil), health.MissingTables...)
					sort.Strings(missing)
					fmt.Fprintf(out, "Missing tables: %s\n", strings.Join(missing, ", "))
				} else {
					fmt.Fprintln(out, "Missing tables: none")
				}
				fmt.Fprintf(out, "Integrity check: %s\n", yesNo(health.IntegrityCheck))
				fmt.Fprintf(out, "Queue entries: %d\n", health.TotalEntries)
				fmt.Fprintf(out, "Result rows: %d\n", health.TotalResults)
				if health.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", health.Error)
				}
				return err
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry [id...]",
		Short: "Return failed entries to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return queueAdmin(ctx, cmd,
				func(client *ipc.Client) (int64, error) {
					resp, err := client.QueueRetry(ids)
					if err != nil {
						return 0, err
					}
					return resp.Updated, nil
				},
				func(st *store.Store) (int64, error) {
					return st.RetryFailed(cmd.Context(), ids...)
				},
				"Retried %d entries\n",
			)
		},
	}
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Return entries stuck in processing to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return queueAdmin(ctx, cmd,
				func(client *ipc.Client) (int64, error) {
					resp, err := client.QueueReset()
					if err != nil {
						return 0, err
					}
					return resp.Updated, nil
				},
				func(st *store.Store) (int64, error) {
					return st.ResetStuckProcessing(cmd.Context())
				},
				"Reset %d entries\n",
			)
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove done and failed entries from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return queueAdmin(ctx, cmd,
				func(client *ipc.Client) (int64, error) {
					resp, err := client.QueueClear()
					if err != nil {
						return 0, err
					}
					return resp.Removed, nil
				},
				func(st *store.Store) (int64, error) {
					return st.ClearTerminal(cmd.Context())
				},
				"Removed %d entries\n",
			)
		},
	}
}

// queueAdmin prefers the daemon's IPC surface so admin actions are serialized
// with the sweeper, and falls back to direct store access when the daemon is
// not running.
func queueAdmin(ctx *commandContext, cmd *cobra.Command, viaClient func(*ipc.Client) (int64, error), viaStore func(*store.Store) (int64, error), format string) error {
	var count int64
	err := ctx.withClient(func(client *ipc.Client) error {
		n, err := viaClient(client)
		count = n
		return err
	})
	if err != nil {
		storeErr := ctx.withStore(func(st *store.Store) error {
			n, err := viaStore(st)
			count = n
			return err
		})
		if storeErr != nil {
			return storeErr
		}
	}
	if ctx.JSONMode() {
		return writeJSON(cmd, map[string]int64{"count": count})
	}
	fmt.Fprintf(cmd.OutOrStdout(), format, count)
	return nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid entry id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatSweepTime(raw string) string {
	if raw == "" {
		return "never"
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Local().Format("2006-01-02 15:04:05")
	}
	return raw
}
