package harness

import (
	"fmt"
	"os"
	"path/filepath"
)

// Canonical artifact names inside a test-case directory.
const (
	// InputFileName is the artifact the simulator reads. Fixture authoring
	// creates it; the harness never parses it.
	InputFileName = "input.json"

	// OutputFileName is the artifact the simulator writes. It need not exist
	// before a run and is overwritten on every run.
	OutputFileName = "user_output.json"
)

// Case is one simulator execution scenario. Its identity is the directory
// path; the input and output paths are derived from the directory by the
// canonical naming convention.
type Case struct {
	Name       string
	Dir        string
	InputPath  string
	OutputPath string
}

// NewCase derives a Case from a test-case directory.
func NewCase(dir string) Case {
	return Case{
		Name:       filepath.Base(dir),
		Dir:        dir,
		InputPath:  filepath.Join(dir, InputFileName),
		OutputPath: filepath.Join(dir, OutputFileName),
	}
}

// Discover enumerates the test cases directly under root: every immediate
// subdirectory is a case. Non-directory entries are ignored.
//
// Cases are returned in directory-listing order. No ordering contract beyond
// that is offered; callers must not depend on cross-run stability.
func Discover(root string) ([]Case, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read tests directory: %w", err)
	}

	var cases []Case
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		cases = append(cases, NewCase(filepath.Join(root, entry.Name())))
	}
	return cases, nil
}
