package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vetter/internal/store"
)

func newLeaveCommand(ctx *commandContext) *cobra.Command {
	var subjectID int64
	var reason string

	cmd := &cobra.Command{
		Use:   "leave",
		Short: "Ask the deep worker to leave a subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				request, err := st.EnqueueLeave(cmd.Context(), subjectID, reason)
				if err != nil {
					return fmt.Errorf("enqueue leave request: %w", err)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, request)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Leave request %d queued for subject %d\n", request.ID, request.SubjectID)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&subjectID, "subject", 0, "Numeric subject identifier")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the worker should leave (defaults to manual)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
