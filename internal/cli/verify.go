package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVerifyCommand creates the verify command.
//
// Verification - comparing user_output.json against an expected result - is
// deliberately not part of this harness today; it is performed by separate
// course tooling. The command exists so the gap is visible on the CLI
// surface instead of silently absent.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [tests-dir]",
		Short: "Compare simulator outputs against expected results (not implemented)",
		Long: `Compare each case's user_output.json against an expected output.

The harness only produces output artifacts; verifying them against a ground
truth is handled by external tooling. This command is a placeholder for that
hook.

Example:
  simtest verify ./given_tests`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd)
		},
	}

	return cmd
}

func runVerify(cmd *cobra.Command) error {
	fmt.Fprintln(cmd.OutOrStdout(), "Output verification is handled by external tooling.")
	fmt.Fprintln(cmd.OutOrStdout(), "Use `simtest batch` to produce user_output.json artifacts for it.")

	return fmt.Errorf("verify subcommand not yet implemented - outputs are checked by external tooling")
}
