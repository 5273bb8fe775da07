package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lferrand/simtest/internal/harness"
	"github.com/lferrand/simtest/internal/inputspec"
)

// CaseValidation holds the validation result for one test case.
type CaseValidation struct {
	Name  string `json:"name"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidationResult holds validation results for a tests directory.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Cases []CaseValidation `json:"cases"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [tests-dir]",
		Short: "Check every case's input artifact against the simulator input contract",
		Long: `Validate each test case's input.json without launching the simulator.

The input contract - a JSON array of instruction strings - is checked
offline, so malformed fixtures are caught before a batch run burns time on
them. Instruction syntax itself is still the simulator's concern.

Exit codes:
  0 - Every input artifact is valid
  1 - One or more input artifacts are missing or invalid
  2 - Command error (tests directory not found)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := DefaultTestsDir
			if len(args) == 1 {
				root = args[0]
			}
			return runInputValidation(rootOpts, root, cmd)
		},
	}

	return cmd
}

func runInputValidation(opts *RootOptions, root string, cmd *cobra.Command) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("tests directory not found: %s", root))
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cases, err := harness.Discover(root)
	if err != nil {
		return WrapExitError(ExitCommandError, "discover test cases", err)
	}
	formatter.VerboseLog("Found %d test case(s) in %s", len(cases), root)

	result := ValidationResult{
		Valid: true,
		Cases: make([]CaseValidation, 0, len(cases)),
	}
	for _, c := range cases {
		result.Cases = append(result.Cases, validateCaseInput(c))
	}
	for _, cv := range result.Cases {
		if !cv.Valid {
			result.Valid = false
			break
		}
	}

	if opts.Format == "json" {
		return outputValidationJSON(cmd.OutOrStdout(), result)
	}
	return outputValidationText(cmd.OutOrStdout(), result)
}

// validateCaseInput checks one case's input artifact.
func validateCaseInput(c harness.Case) CaseValidation {
	data, err := os.ReadFile(c.InputPath)
	if err != nil {
		return CaseValidation{
			Name:  c.Name,
			Valid: false,
			Error: fmt.Sprintf("read %s: %v", harness.InputFileName, err),
		}
	}

	if err := inputspec.Validate(c.InputPath, data); err != nil {
		return CaseValidation{
			Name:  c.Name,
			Valid: false,
			Error: err.Error(),
		}
	}

	return CaseValidation{Name: c.Name, Valid: true}
}

func invalidCount(result ValidationResult) int {
	n := 0
	for _, cv := range result.Cases {
		if !cv.Valid {
			n++
		}
	}
	return n
}

// outputValidationJSON outputs the validation result as JSON.
func outputValidationJSON(w io.Writer, result ValidationResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if !result.Valid {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_INVALID_INPUT",
			Message: fmt.Sprintf("%d input artifact(s) invalid", invalidCount(result)),
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d input artifact(s) invalid", invalidCount(result)))
	}
	return nil
}

// outputValidationText outputs the validation result as text.
func outputValidationText(w io.Writer, result ValidationResult) error {
	for _, cv := range result.Cases {
		if cv.Valid {
			fmt.Fprintf(w, "✓ %s\n", cv.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", cv.Name)
		fmt.Fprintf(w, "  %s\n", cv.Error)
	}

	if len(result.Cases) == 0 {
		fmt.Fprintln(w, "No test cases found.")
		return nil
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d input artifact(s) invalid", invalidCount(result)))
	}

	fmt.Fprintln(w, "✓ All input artifacts valid")
	return nil
}
