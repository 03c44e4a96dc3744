package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vetter/internal/store"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	var subjectID int64

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show the result history for a subject, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				records, err := st.ResultsForSubject(cmd.Context(), subjectID)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, records)
				}
				if len(records) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No results for subject %d\n", subjectID)
					return nil
				}

				rows := make([][]string, 0, len(records))
				for _, record := range records {
					created := ""
					if !record.CreatedAt.IsZero() {
						created = record.CreatedAt.Local().Format("2006-01-02 15:04")
					}
					sides := ""
					if record.FrontResult != nil {
						sides = "front"
					}
					if record.DeepResult != nil {
						if sides != "" {
							sides += "+deep"
						} else {
							sides = "deep"
						}
					}
					rows = append(rows, []string{
						strconv.FormatInt(record.ID, 10),
						sides,
						yesNo(record.Verdict),
						record.Notes,
						created,
					})
				}
				out := renderTable(
					[]string{"ID", "Sides", "Verdict", "Notes", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&subjectID, "subject", 0, "Numeric subject identifier")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
