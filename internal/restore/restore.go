// SPDX-License-Identifier: MPL-2.0

// Package restore defines the boundary to the external dependency restore
// step. The store hands restore a minimal project descriptor and an output
// directory; everything about resolution, download, and extraction happens
// on the other side of this interface. The package also writes the project
// descriptor the external command consumes.
package restore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// ProjectFileExt is the extension the restore command requires for project
// descriptors. The store forces temporary project paths to this extension.
const ProjectFileExt = ".toml"

// Request carries the inputs for one restore invocation.
type Request struct {
	// ProjectFile is the path to the project descriptor.
	ProjectFile string
	// OutputDir is where restore must place the restored package tree.
	OutputDir string
	// ConfigFile optionally points at a feed configuration file.
	ConfigFile string
	// OfflineFeed optionally points at a local directory feed consulted
	// before any remote source.
	OfflineFeed string
	// Source optionally overrides the package source/feed.
	Source string
	// Verbosity optionally sets the external command's verbosity level.
	Verbosity string
	// ExtraArgs are passed through to the external command unchanged.
	ExtraArgs []string
}

// Invoker runs the external restore step.
type Invoker interface {
	Restore(ctx context.Context, req Request) error
}

// ExitError reports a restore command that ran and exited non-zero.
type ExitError struct {
	Code   int
	Stderr string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("restore exited with status %d: %s", e.Code, e.Stderr)
	}
	return fmt.Sprintf("restore exited with status %d", e.Code)
}

// ExecInvoker shells out to a configured restore command. The command is a
// full argv prefix (e.g. ["dotnet", "restore"]); request-derived arguments
// are appended to it.
type ExecInvoker struct {
	command []string
	logger  *log.Logger
}

// NewExecInvoker creates an ExecInvoker for the given command argv prefix.
func NewExecInvoker(command []string, logger *log.Logger) (*ExecInvoker, error) {
	if len(command) == 0 {
		return nil, errors.New("restore command must not be empty")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ExecInvoker{command: command, logger: logger}, nil
}

// Restore implements Invoker. Any non-zero exit is returned as an ExitError
// carrying the command's stderr output.
func (e *ExecInvoker) Restore(ctx context.Context, req Request) error {
	args := append(append([]string{}, e.command[1:]...), buildArgs(req)...)

	e.logger.Debug("invoking restore", "command", e.command[0], "args", args)

	cmd := exec.CommandContext(ctx, e.command[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return fmt.Errorf("running restore command %q: %w", e.command[0], err)
	}
	return nil
}

// buildArgs assembles the request-derived argument tail.
func buildArgs(req Request) []string {
	args := []string{req.ProjectFile, "--output", req.OutputDir}
	if req.ConfigFile != "" {
		args = append(args, "--config", req.ConfigFile)
	}
	if req.OfflineFeed != "" {
		args = append(args, "--offline-feed", req.OfflineFeed)
	}
	if req.Source != "" {
		args = append(args, "--source", req.Source)
	}
	if req.Verbosity != "" {
		args = append(args, "--verbosity", req.Verbosity)
	}
	return append(args, req.ExtraArgs...)
}

// Project is the minimal descriptor the restore command consumes: the
// target framework, the one package reference to resolve, and where to put
// the restored output.
type Project struct {
	TargetFramework string         `toml:"target_framework"`
	Package         ProjectPackage `toml:"package"`
	OutputPath      string         `toml:"output_path"`
}

// ProjectPackage is the package reference inside a Project.
type ProjectPackage struct {
	ID string `toml:"id"`
	// Version is a version or range expression; "*" requests the latest.
	Version string `toml:"version"`
}

// WriteProject serializes p to path as TOML.
func WriteProject(fsys afero.Fs, path string, p Project) error {
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding project descriptor: %w", err)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("writing project descriptor %s: %w", path, err)
	}
	return nil
}
