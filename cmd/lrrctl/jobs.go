package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lanraragi/lrrctl/internal/journal"
)

var errJournalDisabled = errors.New("the job journal is disabled, set journal.enabled in the config")

func jobsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "list the Minion jobs followed by lrrctl",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !config.JournalEnabled() {
				return errJournalDisabled
			}
			store, err := journal.Open(cmd.Context(), journalPath(config))
			if err != nil {
				return fmt.Errorf("opening journal: %w", err)
			}
			defer func() {
				_ = store.Close()
			}()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printEntries(entries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of jobs to show, 0 for all")
	return cmd
}

func printEntries(entries []journal.Entry) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "JOB\tKIND\tSTATUS\tSTARTED\tTOOK\tREASON")
	for _, e := range entries {
		status, took, reason := "running", "", ""
		if e.Success != nil {
			status = "failed"
			if *e.Success {
				status = "ok"
			}
		}
		if e.FinishedAt != nil {
			took = e.FinishedAt.Sub(e.StartedAt).Round(time.Second).String()
		}
		if e.FailureReason != nil {
			reason = *e.FailureReason
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.JobID, e.Kind, status, e.StartedAt.Format(time.DateTime), took, reason)
	}
	return w.Flush()
}
