// SPDX-License-Identifier: MPL-2.0

package store

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"toolshed-cli/internal/lockfile"
	"toolshed-cli/internal/toolmanifest"
)

// ToolConfiguration describes the command an installed package provides and
// where its entry point lives on disk.
type ToolConfiguration struct {
	// CommandName is the name the tool is invoked by.
	CommandName string
	// Runner is the runner token the shim uses.
	Runner string
	// EntryPoint is the entry point path relative to the package content root.
	EntryPoint string
	// ExecutablePath is the absolute path to the entry point inside the
	// installed package directory.
	ExecutablePath string
}

// ToolConfiguration reads the lock manifest of an installed package,
// locates and parses the embedded settings manifest, and resolves the
// absolute entry point path. It is computed fresh on every call; nothing is
// cached beyond the package directory itself.
func (s *Store) ToolConfiguration(id, version string) (*ToolConfiguration, error) {
	pkgDir, err := s.PackageDir(id, version)
	if err != nil {
		return nil, err
	}

	installed, err := afero.DirExists(s.fs, pkgDir)
	if err != nil {
		return nil, &PackageError{Op: "retrieve configuration for", PackageID: id, Err: err}
	}
	if !installed {
		return nil, fmt.Errorf("%w: %s %s", ErrNotInstalled, id, version)
	}

	lf, err := lockfile.Read(s.fs, filepath.Join(pkgDir, lockfile.FileName))
	if err != nil {
		return nil, &PackageError{Op: "retrieve configuration for", PackageID: id, Err: err}
	}

	lib, err := lf.Library(id)
	if err != nil {
		return nil, &PackageError{Op: "retrieve configuration for", PackageID: id, Err: err}
	}

	settingsRel, ok := lib.FindFileByName(toolmanifest.FileName)
	if !ok {
		return nil, &PackageError{
			Op:        "retrieve configuration for",
			PackageID: id,
			Err:       fmt.Errorf("package is missing its %s settings file", toolmanifest.FileName),
		}
	}

	// Library file entries are relative to the library content root
	// <pkgDir>/<id>/<libVersion>/ left behind by restore.
	contentRoot := filepath.Join(pkgDir, id, lib.Version)

	cfg, err := toolmanifest.Load(s.fs, filepath.Join(contentRoot, filepath.FromSlash(settingsRel)))
	if err != nil {
		return nil, &PackageError{Op: "retrieve configuration for", PackageID: id, Err: err}
	}

	if !lib.HasFile(cfg.EntryPoint) {
		return nil, &PackageError{
			Op:        "retrieve configuration for",
			PackageID: id,
			Err:       fmt.Errorf("entry point %s declared by the settings file is missing from the package", cfg.EntryPoint),
		}
	}

	return &ToolConfiguration{
		CommandName:    cfg.CommandName,
		Runner:         cfg.Runner,
		EntryPoint:     cfg.EntryPoint,
		ExecutablePath: filepath.Join(contentRoot, filepath.FromSlash(cfg.EntryPoint)),
	}, nil
}
