package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lferrand/simtest/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	JournalPath string
	RunID       string
	Limit       int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled batch runs",
		Long: `List batch runs recorded with "simtest batch --journal".

With --run, shows the per-case outcomes of one run instead, in execution
order, including each case's input digest.

Examples:
  simtest history --journal simtest.db
  simtest history --journal simtest.db --limit 5
  simtest history --journal simtest.db --run 2f1c...`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.JournalPath, "journal", "", "path to the run journal (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show per-case outcomes for this run id")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "number of most recent runs to show")
	_ = cmd.MarkFlagRequired("journal")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	j, err := journal.Open(opts.JournalPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open journal", err)
	}
	defer j.Close()

	w := cmd.OutOrStdout()

	if opts.RunID != "" {
		records, err := j.CasesForRun(cmd.Context(), opts.RunID)
		if err != nil {
			return WrapExitError(ExitCommandError, "read journal", err)
		}
		if opts.Format == "json" {
			return outputJSONData(w, records)
		}
		return outputCaseRecordsText(w, opts.RunID, records)
	}

	runs, err := j.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "read journal", err)
	}
	if opts.Format == "json" {
		return outputJSONData(w, runs)
	}
	return outputRunsText(w, runs)
}

func outputJSONData(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: data})
}

func outputRunsText(w io.Writer, runs []journal.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No journaled runs found.")
		return nil
	}

	fmt.Fprintln(w, "ID\tSTARTED\tROOT\tPOLICY\tPASSED\tFAILED\tTOTAL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID,
			run.StartedAt.Format(time.RFC3339),
			run.Root,
			run.Policy,
			run.Passed,
			run.Failed,
			run.Total,
		)
	}
	return nil
}

func outputCaseRecordsText(w io.Writer, runID string, records []journal.CaseRecord) error {
	if len(records) == 0 {
		fmt.Fprintf(w, "No case records for run %s.\n", runID)
		return nil
	}

	fmt.Fprintln(w, "SEQ\tNAME\tSTATUS\tEXIT\tDURATION\tINPUT")
	for _, rec := range records {
		exit := "n/a"
		if rec.ExitCode != nil {
			exit = fmt.Sprintf("%d", *rec.ExitCode)
		}
		digest := rec.InputDigest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d ms\t%s\n",
			rec.Seq,
			rec.Name,
			rec.Status,
			exit,
			rec.DurationMS,
			digest,
		)
	}
	return nil
}
