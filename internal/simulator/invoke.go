package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// OutcomeKind classifies how a simulator invocation ended.
//
// Infrastructure problems (the simulator never started) are kept distinct
// from simulator-reported failures (the simulator ran and exited non-zero)
// so that callers can tell a broken environment apart from a failing test.
type OutcomeKind int

const (
	// OutcomeSuccess means the simulator exited with status 0.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeExit means the simulator started and exited non-zero.
	OutcomeExit

	// OutcomeLaunchError means the simulator process never started
	// (missing executable, unreadable working directory, etc.).
	OutcomeLaunchError
)

// String returns a stable identifier used in reports and the journal.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeExit:
		return "nonzero_exit"
	case OutcomeLaunchError:
		return "launch_error"
	default:
		return "unknown"
	}
}

// Invocation describes one simulator run: the input artifact to execute and
// the path where the simulator must write its output artifact.
//
// Both paths are opaque to the harness. They are passed to the simulator as
// positional arguments, in this order, and never parsed here. The simulator
// owns all validation of their contents.
type Invocation struct {
	InputPath  string
	OutputPath string

	// Stdin, Stdout and Stderr are handed to the child process. Nil fields
	// default to the harness's own standard streams, matching plain
	// inherit-the-parent process launch semantics.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Outcome is the tagged result of a simulator invocation.
type Outcome struct {
	Kind      OutcomeKind
	ExitCode  int // meaningful for OutcomeSuccess (0) and OutcomeExit
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Failed reports whether the invocation should count as a failing test case.
func (o Outcome) Failed() bool {
	return o.Kind != OutcomeSuccess
}

// HarnessExitCode maps the outcome to the exit status the harness itself
// should terminate with. Simulator exit codes propagate exactly; launch
// failures use 127 for a missing executable (shell convention) and 1
// otherwise.
func (o Outcome) HarnessExitCode() int {
	switch o.Kind {
	case OutcomeSuccess:
		return 0
	case OutcomeExit:
		return o.ExitCode
	default:
		if errors.Is(o.Err, exec.ErrNotFound) {
			return 127
		}
		return 1
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSuccess:
		return "success"
	case OutcomeExit:
		return fmt.Sprintf("exit %d", o.ExitCode)
	default:
		return fmt.Sprintf("launch error: %v", o.Err)
	}
}

// Invoke launches the simulator for one test case and blocks until the child
// process terminates. There is no timeout: a hung simulator hangs the caller
// unless ctx is cancelled by the surrounding environment.
//
// The child runs from the locator's working directory with the invocation's
// input and output paths appended as positional arguments. Output written by
// the simulator is not captured or reinterpreted; success and failure are
// communicated purely through the exit status and the output artifact.
func Invoke(ctx context.Context, loc Locator, inv Invocation) Outcome {
	out := Outcome{StartedAt: time.Now().UTC()}

	args := append(append([]string{}, loc.Command[1:]...), inv.InputPath, inv.OutputPath)
	cmd := exec.CommandContext(ctx, loc.Command[0], args...)
	cmd.Dir = loc.Dir
	cmd.Stdin = inv.Stdin
	cmd.Stdout = inv.Stdout
	cmd.Stderr = inv.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err := cmd.Run()
	out.Duration = time.Since(out.StartedAt)

	if err == nil {
		out.Kind = OutcomeSuccess
		return out
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.Kind = OutcomeExit
		out.ExitCode = exitErr.ExitCode()
		out.Err = err
		return out
	}

	out.Kind = OutcomeLaunchError
	out.Err = launchCause(err)
	return out
}

// launchCause normalizes start failures so HarnessExitCode can recognize a
// missing executable regardless of how the platform reported it.
func launchCause(err error) error {
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return fmt.Errorf("simulator command not found: %w", exec.ErrNotFound)
	}

	// On some platforms a missing interpreter or working directory surfaces
	// as a PathError instead of an exec.Error.
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, exec.ErrNotFound) {
		return fmt.Errorf("simulator command not found: %w", exec.ErrNotFound)
	}

	return err
}
