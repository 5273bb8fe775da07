package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAllValid(t *testing.T) {
	root := t.TempDir()
	writeCase(t, root, "case1", `["addi x1, x0, 1"]`)
	writeCase(t, root, "case2", `[]`)

	out, err := execute(t, "validate", root)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ case1")
	assert.Contains(t, out, "✓ case2")
	assert.Contains(t, out, "✓ All input artifacts valid")
}

func TestValidateRejectsBadInputs(t *testing.T) {
	root := t.TempDir()
	writeCase(t, root, "good", `["ld x1, 0(x2)"]`)
	writeCase(t, root, "not-json", `{broken`)
	writeCase(t, root, "not-strings", `[1, 2, 3]`)

	out, err := execute(t, "validate", root)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 input artifact(s) invalid")

	assert.Contains(t, out, "✓ good")
	assert.Contains(t, out, "✗ not-json")
	assert.Contains(t, out, "✗ not-strings")
}

func TestValidateMissingInputArtifact(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty-case"), 0755))

	out, err := execute(t, "validate", root)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ empty-case")
	assert.Contains(t, out, "read input.json")
}

func TestValidateEmptyRoot(t *testing.T) {
	out, err := execute(t, "validate", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No test cases found.")
}

func TestValidateMissingRoot(t *testing.T) {
	_, err := execute(t, "validate", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "tests directory not found")
}

func TestValidateJSONOutput(t *testing.T) {
	root := t.TempDir()
	writeCase(t, root, "good", `[]`)
	writeCase(t, root, "bad", `"not an array"`)

	out, err := execute(t, "validate", "--format", "json", root)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_INVALID_INPUT", resp.Error.Code)
}
