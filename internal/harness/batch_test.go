package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lferrand/simtest/internal/simulator"
)

// fakeSimulator re-invokes this test binary as the simulator. The helper
// drives its behavior from the content of each case's input.json (see
// TestHelperSimulator), so one locator serves a whole batch of cases.
func fakeSimulator(t *testing.T) simulator.Locator {
	t.Helper()

	exe, err := os.Executable()
	require.NoError(t, err)

	return simulator.Locator{
		Command: []string{exe, "-test.run=TestHelperSimulator", "--", "--simtest-helper=1"},
		Dir:     t.TempDir(),
	}
}

// writeCase creates a test-case directory under root. The content becomes
// the case's input.json; "exit N" makes the fake simulator fail with code N.
func writeCase(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, InputFileName), []byte(content), 0644))
}

func newBatch(t *testing.T) *Batch {
	t.Helper()
	return &Batch{
		Locator: fakeSimulator(t),
		Stdout:  new(bytes.Buffer),
		Stderr:  new(bytes.Buffer),
	}
}

func TestBatchAllPassing(t *testing.T) {
	root := t.TempDir()
	writeCase(t, root, "case1", "ok")
	writeCase(t, root, "case2", "ok")
	writeCase(t, root, "case3", "ok")

	report, err := newBatch(t).Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 3, report.Passed)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 0, report.ExitCode)
	assert.False(t, report.Aborted)
	require.Len(t, report.Results, 3)

	for _, name := range []string{"case1", "case2", "case3"} {
		_, err := os.Stat(filepath.Join(root, name, OutputFileName))
		assert.NoError(t, err, "case %s should have an output artifact", name)
	}
}

func TestBatchFailFastStopsAtFirstFailure(t *testing.T) {
	root := t.TempDir()
	writeCase(t, root, "case1", "ok")
	writeCase(t, root, "case2", "exit 2")
	writeCase(t, root, "case3", "ok")

	report, err := newBatch(t).Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, report.ExitCode, "first failing case's exit code propagates")
	assert.True(t, report.Aborted)
	require.Len(t, report.Results, 2, "no case after the failing one is attempted")
	assert.Equal(t, StatusPassed, report.Results[0].Status)
	assert.Equal(t, StatusFailed, report.Results[1].Status)
	require.NotNil(t, report.Results[1].ExitCode)
	assert.Equal(t, 2, *report.Results[1].ExitCode)

	// The first case ran to completion before the abort.
	_, err = os.Stat(filepath.Join(root, "case1", OutputFileName))
	assert.NoError(t, err)

	// The case after the failure was never invoked.
	_, err = os.Stat(filepath.Join(root, "case3", OutputFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestBatchFailureOnLastCaseIsNotAborted(t *testing.T) {
	root := t.TempDir()
	writeCase(t, root, "case1", "ok")
	writeCase(t, root, "case2", "exit 5")

	report, err := newBatch(t).Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 5, report.ExitCode)
	assert.False(t, report.Aborted, "nothing was left to skip")
}

func TestBatchKeepGoingCollectsAllFailures(t *testing.T) {
	root := t.TempDir()
	writeCase(t, root, "case1", "exit 2")
	writeCase(t, root, "case2", "ok")
	writeCase(t, root, "case3", "exit 4")

	b := newBatch(t)
	b.Policy = KeepGoing
	report, err := b.Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 1, report.ExitCode, "keep-going collapses failures to exit 1")
	assert.False(t, report.Aborted)
	require.Len(t, report.Results, 3)
}

func TestBatchLaunchErrorIsDistinct(t *testing.T) {
	root := t.TempDir()
	writeCase(t, root, "case1", "ok")

	b := newBatch(t)
	b.Locator = simulator.Locator{
		Command: []string{"definitely-not-a-simulator-49152"},
		Dir:     t.TempDir(),
	}
	report, err := b.Run(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	result := report.Results[0]
	assert.Equal(t, StatusLaunchError, result.Status)
	assert.Nil(t, result.ExitCode, "no exit code when the simulator never started")
	assert.Equal(t, 127, result.PropagatedCode)
	assert.Equal(t, 127, report.ExitCode)
}

func TestBatchFilter(t *testing.T) {
	root := t.TempDir()
	writeCase(t, root, "alu-add", "ok")
	writeCase(t, root, "alu-sub", "ok")
	writeCase(t, root, "mem-load", "ok")

	b := newBatch(t)
	b.Filter = "alu-*"
	report, err := b.Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	names := []string{report.Results[0].Name, report.Results[1].Name}
	assert.ElementsMatch(t, []string{"alu-add", "alu-sub"}, names)
}

func TestBatchInvalidFilterPattern(t *testing.T) {
	root := t.TempDir()
	writeCase(t, root, "case1", "ok")

	b := newBatch(t)
	b.Filter = "[invalid"
	_, err := b.Run(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestBatchObserverSeesEveryResult(t *testing.T) {
	root := t.TempDir()
	writeCase(t, root, "case1", "ok")
	writeCase(t, root, "case2", "exit 2")

	var seen []string
	b := newBatch(t)
	b.Observer = func(r CaseResult) { seen = append(seen, r.Name) }

	_, err := b.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"case1", "case2"}, seen)
}

func TestBatchEmptyRoot(t *testing.T) {
	report, err := newBatch(t).Run(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total)
	assert.Equal(t, 0, report.ExitCode)
}

func TestBatchMissingRoot(t *testing.T) {
	_, err := newBatch(t).Run(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

// TestHelperSimulator is not a real test: it stands in for the simulator when
// this binary is re-invoked by fakeSimulator. It reads the case's input
// artifact to decide its behavior, writes the output artifact on success, and
// exits with the requested status on failure.
func TestHelperSimulator(t *testing.T) {
	args := os.Args
	sep := -1
	for i := range args {
		if args[i] == "--" {
			sep = i
			break
		}
	}
	if sep < 0 || sep+1 >= len(args) || args[sep+1] != "--simtest-helper=1" {
		return
	}

	rest := args[sep+2:]
	if len(rest) != 2 {
		os.Exit(3)
	}
	input, output := rest[0], rest[1]

	data, err := os.ReadFile(input)
	if err != nil {
		os.Exit(3)
	}

	var code int
	if n, _ := parseExitDirective(string(data)); n > 0 {
		code = n
	}
	if code != 0 {
		os.Exit(code)
	}

	if err := os.WriteFile(output, []byte(`{"ActiveList":[]}`), 0644); err != nil {
		os.Exit(3)
	}
	os.Exit(0)
}

// parseExitDirective recognizes "exit N" input content for the fake simulator.
func parseExitDirective(s string) (int, bool) {
	var n int
	if _, err := fmt.Sscanf(s, "exit %d", &n); err != nil {
		return 0, false
	}
	return n, true
}
