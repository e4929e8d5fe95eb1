// SPDX-License-Identifier: MPL-2.0

// Package toolmanifest parses the settings manifest shipped inside a tool
// package. The manifest declares the single command the package provides:
// its invocation name, the runner used to execute it, and the entry point
// relative to the package content root.
//
// A well-formed manifest looks like:
//
//	[[commands]]
//	name = "mytool"
//	entry_point = "tools/mytool.dll"
//	runner = "dotnet"
package toolmanifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"toolshed-cli/internal/platform"
)

const (
	// FileName is the manifest filename inside a package's content root.
	FileName = "tool.toml"

	// RunnerDotnet is the only runner the shim layer knows how to launch.
	RunnerDotnet = "dotnet"
)

// ErrInvalidManifest is the sentinel wrapped by every parse or validation
// failure, so callers can classify with errors.Is.
var ErrInvalidManifest = errors.New("invalid tool manifest")

// Command is one declared command in the raw manifest.
type Command struct {
	Name       string `toml:"name"`
	EntryPoint string `toml:"entry_point"`
	Runner     string `toml:"runner"`
}

type manifest struct {
	Commands []Command `toml:"commands"`
}

// Configuration is the validated result of parsing a manifest. It describes
// the one command a tool package provides.
type Configuration struct {
	// CommandName is the name the shim will be published under.
	CommandName string
	// EntryPoint is the entry point path relative to the package content root.
	EntryPoint string
	// Runner is the runner token used by the shim to invoke the entry point.
	Runner string
}

// Parse decodes and validates manifest bytes.
func Parse(data []byte) (*Configuration, error) {
	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	switch len(m.Commands) {
	case 0:
		return nil, fmt.Errorf("%w: no command declared", ErrInvalidManifest)
	case 1:
		// One command per package is the contract.
	default:
		return nil, fmt.Errorf("%w: %d commands declared, exactly one is supported", ErrInvalidManifest, len(m.Commands))
	}

	c := m.Commands[0]
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("%w: command name is empty", ErrInvalidManifest)
	}
	if !platform.IsValidFileName(c.Name) {
		return nil, fmt.Errorf("%w: command name %q contains characters invalid in a filename", ErrInvalidManifest, c.Name)
	}
	if strings.TrimSpace(c.EntryPoint) == "" {
		return nil, fmt.Errorf("%w: entry point is empty", ErrInvalidManifest)
	}
	if c.Runner != RunnerDotnet {
		return nil, fmt.Errorf("%w: runner %q is not supported (supported: %s)", ErrInvalidManifest, c.Runner, RunnerDotnet)
	}

	return &Configuration{
		CommandName: c.Name,
		EntryPoint:  c.EntryPoint,
		Runner:      c.Runner,
	}, nil
}

// Load reads and parses the manifest at path.
func Load(fsys afero.Fs, path string) (*Configuration, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading tool manifest %s: %w", path, err)
	}
	return Parse(data)
}
