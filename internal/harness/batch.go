package harness

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/unicode/norm"

	"github.com/lferrand/simtest/internal/simulator"
)

// Policy selects how a batch reacts to a failing case.
type Policy string

const (
	// FailFast aborts the remaining sequence at the first failing case and
	// propagates that case's exit status. This is the default.
	FailFast Policy = "fail-fast"

	// KeepGoing runs every case and collects all failures.
	KeepGoing Policy = "keep-going"
)

// CaseStatus is the terminal state of one case execution.
type CaseStatus string

const (
	StatusPassed CaseStatus = "passed"
	StatusFailed CaseStatus = "failed"

	// StatusLaunchError means the simulator never started for this case.
	// Kept distinct from StatusFailed so infrastructure breakage does not
	// masquerade as a simulator-reported test failure.
	StatusLaunchError CaseStatus = "launch_error"
)

// CaseResult records the terminal state of one case.
type CaseResult struct {
	Name   string     `json:"name"`
	Status CaseStatus `json:"status"`

	// ExitCode is the simulator's exit status. Nil when the simulator never
	// started.
	ExitCode *int `json:"exit_code,omitempty"`

	// PropagatedCode is the exit status the harness uses for this case:
	// the simulator's own code, or the launch-failure mapping.
	PropagatedCode int `json:"-"`

	Detail     string        `json:"detail,omitempty"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

// Report aggregates a full batch run.
type Report struct {
	Root    string       `json:"root"`
	Policy  Policy       `json:"policy"`
	Results []CaseResult `json:"cases"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Total   int          `json:"total"`

	// Aborted is true when fail-fast stopped the batch before the end of the
	// discovered sequence.
	Aborted bool `json:"aborted,omitempty"`

	// ExitCode is the status the batch should terminate with: 0 when every
	// case passed, the first failing case's propagated code under fail-fast,
	// 1 under keep-going with any failure.
	ExitCode int `json:"-"`
}

// Batch executes discovered cases against the simulator, one at a time.
type Batch struct {
	Locator simulator.Locator
	Policy  Policy

	// Filter restricts execution to cases whose directory name matches the
	// glob pattern (doublestar syntax). Empty means all cases.
	Filter string

	// Stdout and Stderr are inherited by every simulator invocation.
	Stdout io.Writer
	Stderr io.Writer

	// Observer, if set, is called after each case completes. Used by the CLI
	// for per-case progress lines.
	Observer func(CaseResult)
}

// Run discovers the cases under root and executes them sequentially.
//
// Per-case invocation failures are part of the Report, not the returned
// error; the error covers harness-level problems only (unreadable root,
// invalid filter pattern).
func (b *Batch) Run(ctx context.Context, root string) (*Report, error) {
	cases, err := Discover(root)
	if err != nil {
		return nil, err
	}

	cases, err = b.filterCases(cases)
	if err != nil {
		return nil, err
	}

	policy := b.Policy
	if policy == "" {
		policy = FailFast
	}

	report := &Report{
		Root:    root,
		Policy:  policy,
		Results: []CaseResult{},
		Total:   len(cases),
	}

	for i, c := range cases {
		result := b.runCase(ctx, c)
		report.Results = append(report.Results, result)

		if result.Status == StatusPassed {
			report.Passed++
			continue
		}
		report.Failed++

		if policy == FailFast {
			report.Aborted = i < len(cases)-1
			report.ExitCode = result.PropagatedCode
			return report, nil
		}
		if report.ExitCode == 0 {
			report.ExitCode = 1
		}
	}

	return report, nil
}

// runCase invokes the simulator once for the case. A case reaches exactly
// one terminal status and is never re-attempted.
func (b *Batch) runCase(ctx context.Context, c Case) CaseResult {
	out := simulator.Invoke(ctx, b.Locator, simulator.Invocation{
		InputPath:  c.InputPath,
		OutputPath: c.OutputPath,
		Stdout:     b.Stdout,
		Stderr:     b.Stderr,
	})

	result := CaseResult{
		Name:           c.Name,
		PropagatedCode: out.HarnessExitCode(),
		Duration:       out.Duration,
		DurationMS:     out.Duration.Milliseconds(),
	}

	switch out.Kind {
	case simulator.OutcomeSuccess:
		result.Status = StatusPassed
		code := 0
		result.ExitCode = &code
	case simulator.OutcomeExit:
		result.Status = StatusFailed
		code := out.ExitCode
		result.ExitCode = &code
		result.Detail = fmt.Sprintf("simulator exited with code %d", out.ExitCode)
	default:
		result.Status = StatusLaunchError
		result.Detail = out.Err.Error()
	}

	if b.Observer != nil {
		b.Observer(result)
	}
	return result
}

// filterCases applies the name filter, if any. Names are NFC-normalized
// before matching: some filesystems report decomposed unicode directory
// names, which would otherwise never match a composed pattern.
func (b *Batch) filterCases(cases []Case) ([]Case, error) {
	if b.Filter == "" {
		return cases, nil
	}

	if !doublestar.ValidatePattern(b.Filter) {
		return nil, fmt.Errorf("invalid filter pattern %q", b.Filter)
	}

	filtered := make([]Case, 0, len(cases))
	for _, c := range cases {
		matched, err := doublestar.Match(b.Filter, norm.NFC.String(c.Name))
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", b.Filter, err)
		}
		if matched {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}
