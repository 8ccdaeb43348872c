package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ochairo/ctkrunner/internal/external-adapters/sqlite"
)

type historyOptions struct {
	*rootOptions
	Limit int
	RunID string
}

func newHistoryCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &historyOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List the runs recorded in the history database, newest first, or the
per-API outcomes of one run.

Example:
  ctkrunner history --history-db ctk-history.db
  ctkrunner history --history-db ctk-history.db --run 0190b6c4-...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of runs to list")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the API outcomes of this run")

	return cmd
}

func showHistory(cmd *cobra.Command, opts *historyOptions) error {
	if opts.HistoryDB == "" {
		return wrapExitError(exitFailure, "--history-db is required", nil)
	}
	store, err := sqlite.Open(opts.HistoryDB)
	if err != nil {
		return wrapExitError(exitFailure, "failed to open history database", err)
	}
	//nolint:errcheck // read-only use
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if opts.RunID != "" {
		outcomes, err := store.ListOutcomes(ctx, opts.RunID)
		if err != nil {
			return wrapExitError(exitFailure, "failed to read outcomes", err)
		}
		return opts.print(out, outcomes, func(w io.Writer) {
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tAPI\tARTIFACT\tSTAGE\tEXIT\tSTATUS\tMESSAGE")
			for _, o := range outcomes {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					o.Category, o.Identifier, o.CanonicalName, o.Stage, o.ExitCode, o.Status, o.Message)
			}
			_ = tw.Flush()
		})
	}

	runs, err := store.ListRuns(ctx, opts.Limit)
	if err != nil {
		return wrapExitError(exitFailure, "failed to read runs", err)
	}
	return opts.print(out, runs, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tCOMPONENT\tRELEASE\tSTARTED\tSTATUS")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				r.RunID, r.Component, r.Release, r.StartedAt.Local().Format(time.DateTime), r.Status)
		}
		_ = tw.Flush()
	})
}
