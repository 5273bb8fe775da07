// Package simulator addresses the external CPU simulator as a subprocess.
//
// The simulator is a black box: it accepts an input artifact path and an
// output artifact path as positional arguments, executes whatever program the
// input encodes, writes its results to the output path, and reports success
// or failure through its exit status. Nothing about its instruction set or
// state representation is known to this package.
package simulator

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables overriding the simulator location.
const (
	// EnvCommand overrides the launch command. The value is split on
	// whitespace; arguments containing spaces require the config file.
	EnvCommand = "SIMTEST_SIMULATOR"

	// EnvDir overrides the working directory the simulator is launched from.
	EnvDir = "SIMTEST_SIMULATOR_DIR"
)

// DefaultConfigFile is the config file consulted when --config is not given.
const DefaultConfigFile = "simtest.yaml"

// Locator describes how to launch the simulator: the command to execute and
// the working directory to execute it from.
//
// The working directory exists because the simulator's build tooling assumes
// it runs from its own source tree. Keeping it an explicit, injected value
// (rather than a hard-coded relative path) is what makes the harness usable
// from anywhere on disk.
type Locator struct {
	Command []string `yaml:"command"`
	Dir     string   `yaml:"dir"`
}

// config is the on-disk configuration format:
//
//	simulator:
//	  command: ["cargo", "run", "--quiet", "--"]
//	  dir: "cpusim"
type config struct {
	Simulator Locator `yaml:"simulator"`
}

// DefaultLocator mirrors the conventional on-disk layout: the simulator is a
// Cargo project in ./cpusim, run via its build tool.
func DefaultLocator() Locator {
	return Locator{
		Command: []string{"cargo", "run", "--quiet", "--"},
		Dir:     "cpusim",
	}
}

// ResolveLocator resolves the simulator location once at process start.
//
// Precedence, lowest to highest: built-in default, config file, environment
// variables. When configPath is empty the default config file is consulted
// only if it exists; an explicitly given path must exist.
func ResolveLocator(configPath string) (Locator, error) {
	loc := DefaultLocator()

	path := configPath
	required := configPath != ""
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		fileLoc, err := parseConfig(path, data)
		if err != nil {
			return Locator{}, err
		}
		loc = mergeLocator(loc, fileLoc)
	case errors.Is(err, os.ErrNotExist) && !required:
		// Optional default config; fall through to env and defaults.
	default:
		return Locator{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	if env := os.Getenv(EnvCommand); env != "" {
		loc.Command = strings.Fields(env)
	}
	if env := os.Getenv(EnvDir); env != "" {
		loc.Dir = env
	}

	if err := loc.validate(); err != nil {
		return Locator{}, err
	}
	return loc, nil
}

// parseConfig decodes a config file with strict field validation so typos
// like "comand:" are rejected instead of silently ignored.
func parseConfig(path string, data []byte) (Locator, error) {
	var cfg config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Locator{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg.Simulator, nil
}

// mergeLocator overlays file settings on the defaults, field by field.
func mergeLocator(base, overlay Locator) Locator {
	if len(overlay.Command) > 0 {
		base.Command = overlay.Command
	}
	if overlay.Dir != "" {
		base.Dir = overlay.Dir
	}
	return base
}

func (l Locator) validate() error {
	if len(l.Command) == 0 {
		return errors.New("simulator command is empty")
	}
	if l.Command[0] == "" {
		return errors.New("simulator command executable is empty")
	}
	return nil
}
