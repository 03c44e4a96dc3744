package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vetter/internal/logging"
	"vetter/internal/rendezvous"
	"vetter/internal/store"
)

type checkFlags struct {
	subjectID   int64
	title       string
	requesterID int64
	accessToken string
	frontResult string
	timeout     time.Duration
}

func (f *checkFlags) register(cmd *cobra.Command, withFront bool) {
	cmd.Flags().Int64Var(&f.subjectID, "subject", 0, "Numeric subject identifier")
	cmd.Flags().StringVar(&f.title, "title", "", "Subject display title")
	cmd.Flags().Int64Var(&f.requesterID, "requester", 0, "Identifier of the user requesting the check")
	cmd.Flags().StringVar(&f.accessToken, "link", "", "Access token (invite link) for the subject")
	if withFront {
		cmd.Flags().StringVar(&f.frontResult, "front-result", "", "Path to a JSON file recorded as the front-side result")
	}
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("link")
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Enqueue a subject and wait for the deep worker's result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			timeout := flags.timeout
			if timeout <= 0 {
				timeout = time.Duration(cfg.Workflow.WaitTimeout) * time.Second
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logger = logger.With(logging.String(logging.FieldCorrelationID, uuid.NewString()))

			return ctx.withStore(func(st *store.Store) error {
				if flags.frontResult != "" {
					if err := recordFrontResult(cmd.Context(), st, flags); err != nil {
						return err
					}
				}

				entry, err := st.Enqueue(cmd.Context(), flags.subjectID, normalizeTitle(flags.title), flags.requesterID, flags.accessToken)
				if err != nil {
					return fmt.Errorf("enqueue subject: %w", err)
				}
				logger.Info("subject enqueued",
					logging.Int64(logging.FieldEntryID, entry.ID),
					logging.Int64(logging.FieldSubjectID, entry.SubjectID),
				)

				waiter := rendezvous.NewWaiter(st, logger, time.Duration(cfg.Workflow.PollCap)*time.Second)
				outcome := waiter.Wait(cmd.Context(), flags.subjectID, timeout)
				return printOutcome(cmd, ctx, flags.subjectID, outcome)
			})
		},
	}

	flags.register(cmd, true)
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "How long to wait for the deep result (default from config)")
	return cmd
}

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Enqueue a subject without waiting for the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				entry, err := st.Enqueue(cmd.Context(), flags.subjectID, normalizeTitle(flags.title), flags.requesterID, flags.accessToken)
				if err != nil {
					return fmt.Errorf("enqueue subject: %w", err)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, entry)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued entry %d for subject %d\n", entry.ID, entry.SubjectID)
				return nil
			})
		},
	}

	flags.register(cmd, false)
	return cmd
}

func newWaitCommand(ctx *commandContext) *cobra.Command {
	var subjectID int64
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Wait for a deep result that another session enqueued",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if timeout <= 0 {
				timeout = time.Duration(cfg.Workflow.WaitTimeout) * time.Second
			}
			return ctx.withStore(func(st *store.Store) error {
				waiter := rendezvous.NewWaiter(st, logging.NewNop(), time.Duration(cfg.Workflow.PollCap)*time.Second)
				outcome := waiter.Wait(cmd.Context(), subjectID, timeout)
				return printOutcome(cmd, ctx, subjectID, outcome)
			})
		},
	}

	cmd.Flags().Int64Var(&subjectID, "subject", 0, "Numeric subject identifier")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "How long to wait for the deep result (default from config)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func recordFrontResult(ctx context.Context, st *store.Store, flags *checkFlags) error {
	data, err := os.ReadFile(flags.frontResult)
	if err != nil {
		return fmt.Errorf("read front result: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if !json.Valid([]byte(trimmed)) {
		return fmt.Errorf("front result %s is not valid JSON", flags.frontResult)
	}
	_, err = st.AppendResult(ctx, store.ResultRecord{
		SubjectID:    flags.subjectID,
		SubjectTitle: normalizeTitle(flags.title),
		RequesterID:  flags.requesterID,
		FrontResult:  json.RawMessage(trimmed),
	})
	if err != nil {
		return fmt.Errorf("record front result: %w", err)
	}
	return nil
}

func printOutcome(cmd *cobra.Command, ctx *commandContext, subjectID int64, outcome rendezvous.Outcome) error {
	out := cmd.OutOrStdout()
	if outcome.TimedOut {
		if ctx.JSONMode() {
			return writeJSON(cmd, map[string]any{
				"subject_id": subjectID,
				"timed_out":  true,
				"elapsed":    outcome.Elapsed.String(),
				"attempts":   outcome.Attempts,
			})
		}
		fmt.Fprintf(out, "No deep result for subject %d after %s (%d polls)\n",
			subjectID, outcome.Elapsed.Round(time.Second), outcome.Attempts)
		fmt.Fprintln(out, "The deep worker may still be processing; retry with `vetter wait` later.")
		return nil
	}

	if ctx.JSONMode() {
		return writeJSON(cmd, json.RawMessage(outcome.Report))
	}
	return printReport(cmd, subjectID, outcome.Report)
}
