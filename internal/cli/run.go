package cli

import (
	"github.com/spf13/cobra"

	"github.com/lferrand/simtest/internal/simulator"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config string
}

// NewRunCommand creates the run command: the single-case runner.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <input_file> <output_file>",
		Short: "Run the simulator for a single test case",
		Long: `Run the simulator once, passing the input and output file paths as
positional arguments. The command blocks until the simulator terminates;
the simulator's stdio is inherited and its output is not reinterpreted.

Neither path is validated here - parsing the input and producing the output
are entirely the simulator's concern.

Exit codes:
  0   - Simulator succeeded
  N   - Simulator exited with status N (propagated exactly)
  1   - Usage error (argument count other than two); no process is spawned
  127 - Simulator command not found
  2   - Harness configuration error

Examples:
  simtest run given_tests/case1/input.json given_tests/case1/user_output.json
  simtest run --config harness.yaml case/input.json case/user_output.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCase(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "harness config file (default: simtest.yaml if present)")

	return cmd
}

func runCase(opts *RunOptions, inputPath, outputPath string, cmd *cobra.Command) error {
	loc, err := simulator.ResolveLocator(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolve simulator location", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	formatter.VerboseLog("Launching %v from %s", loc.Command, loc.Dir)

	out := simulator.Invoke(cmd.Context(), loc, simulator.Invocation{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Stdin:      cmd.InOrStdin(),
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
	})

	switch out.Kind {
	case simulator.OutcomeSuccess:
		formatter.VerboseLog("Simulator succeeded in %d ms", out.Duration.Milliseconds())
		return nil
	case simulator.OutcomeExit:
		// The simulator's exit status is the runner's exit status, exactly.
		return NewExitError(out.ExitCode, out.String())
	default:
		return WrapExitError(out.HarnessExitCode(), "failed to launch simulator", out.Err)
	}
}
