package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lferrand/simtest/internal/harness"
	"github.com/lferrand/simtest/internal/journal"
	"github.com/lferrand/simtest/internal/simulator"
)

// DefaultTestsDir is the tests directory used when none is given.
const DefaultTestsDir = "given_tests"

// timeNow is stubbed in tests for deterministic run timestamps.
var timeNow = time.Now

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Config      string
	KeepGoing   bool
	Filter      string
	JournalPath string
}

// NewBatchCommand creates the batch command: the batch driver.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch [tests-dir]",
		Short: "Run the simulator over every test case under a directory",
		Long: `Run the full test suite: every immediate subdirectory of the tests
directory is a test case, executed sequentially in directory-listing order.

By default the batch is fail-fast: the first failing case aborts the
remaining sequence and its exit status becomes the batch's exit status.
With --keep-going every case runs and the batch exits 1 if any failed.

Exit codes:
  0 - Every case passed
  N - First failing case's status (fail-fast) or 1 (--keep-going)
  2 - Command error (tests directory missing, bad config, etc.)

Examples:
  simtest batch
  simtest batch regression_tests --keep-going
  simtest batch --filter "alu-*"
  simtest batch --journal simtest.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := DefaultTestsDir
			if len(args) == 1 {
				root = args[0]
			}
			return runBatch(opts, root, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "harness config file (default: simtest.yaml if present)")
	cmd.Flags().BoolVar(&opts.KeepGoing, "keep-going", false, "run all cases instead of stopping at the first failure")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "run only cases whose name matches this glob pattern")
	cmd.Flags().StringVar(&opts.JournalPath, "journal", "", "record the run in a SQLite journal at this path")

	return cmd
}

func runBatch(opts *BatchOptions, root string, cmd *cobra.Command) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("tests directory not found: %s", root))
	}

	loc, err := simulator.ResolveLocator(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolve simulator location", err)
	}

	w := cmd.OutOrStdout()
	policy := harness.FailFast
	if opts.KeepGoing {
		policy = harness.KeepGoing
	}

	b := &harness.Batch{
		Locator: loc,
		Policy:  policy,
		Filter:  opts.Filter,
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
	}
	if opts.Format != "json" {
		b.Observer = func(r harness.CaseResult) { printProgress(w, r) }
	}

	startedAt := timeNow().UTC()
	report, err := b.Run(cmd.Context(), root)
	if err != nil {
		return WrapExitError(ExitCommandError, "run batch", err)
	}

	if opts.JournalPath != "" {
		if err := journalReport(cmd.Context(), opts.JournalPath, startedAt, report); err != nil {
			return WrapExitError(ExitCommandError, "journal batch run", err)
		}
	}

	if opts.Format == "json" {
		return outputBatchJSON(w, report)
	}
	return outputBatchText(w, report)
}

// printProgress writes a per-case line as results arrive (text format only).
func printProgress(w io.Writer, r harness.CaseResult) {
	switch r.Status {
	case harness.StatusPassed:
		fmt.Fprintf(w, "✓ %s (%d ms)\n", r.Name, r.DurationMS)
	case harness.StatusFailed:
		fmt.Fprintf(w, "✗ %s (exit %d)\n", r.Name, *r.ExitCode)
	default:
		fmt.Fprintf(w, "✗ %s (%s)\n", r.Name, r.Detail)
	}
}

// journalReport records the run and its per-case outcomes.
func journalReport(ctx context.Context, path string, startedAt time.Time, report *harness.Report) error {
	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()

	run := journal.Run{
		ID:        uuid.NewString(),
		StartedAt: startedAt,
		Root:      report.Root,
		Policy:    string(report.Policy),
		Total:     report.Total,
		Passed:    report.Passed,
		Failed:    report.Failed,
	}
	if err := j.WriteRun(ctx, run); err != nil {
		return err
	}

	for i, r := range report.Results {
		c := harness.NewCase(filepath.Join(report.Root, r.Name))
		rec := journal.CaseRecord{
			RunID:       run.ID,
			Seq:         i + 1,
			Name:        r.Name,
			Status:      string(r.Status),
			ExitCode:    r.ExitCode,
			InputDigest: journal.DigestInput(c.InputPath),
			DurationMS:  r.DurationMS,
		}
		if err := j.WriteCaseRecord(ctx, rec); err != nil {
			return err
		}
	}

	return nil
}

// outputBatchJSON outputs the batch report as JSON.
func outputBatchJSON(w io.Writer, report *harness.Report) error {
	status := "ok"
	if report.Failed > 0 {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   report,
	}
	if report.Failed > 0 {
		response.Error = &CLIError{
			Code:    "E_BATCH_FAILED",
			Message: fmt.Sprintf("%d case(s) failed", report.Failed),
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if report.Failed > 0 {
		return NewExitError(report.ExitCode, fmt.Sprintf("%d case(s) failed", report.Failed))
	}
	return nil
}

// outputBatchText outputs the batch report as text.
func outputBatchText(w io.Writer, report *harness.Report) error {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Batch Summary: %d passed, %d failed, %d total\n", report.Passed, report.Failed, report.Total)

	if report.Failed > 0 {
		if report.Aborted {
			fmt.Fprintln(w, "✗ Batch aborted at first failure; remaining cases were not attempted")
		} else {
			fmt.Fprintln(w, "✗ Batch failed")
		}
		return NewExitError(report.ExitCode, fmt.Sprintf("%d case(s) failed", report.Failed))
	}

	fmt.Fprintln(w, "✓ All cases passed")
	return nil
}
