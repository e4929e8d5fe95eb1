// SPDX-License-Identifier: MPL-2.0

// Package lockfile reads the dependency lock manifest the restore step
// leaves inside a package directory. The manifest records, per resolved
// target, the libraries restore materialized and the relative paths of
// every file each library contains. The store uses it to locate a tool's
// settings manifest and entry point without walking the package tree.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/spf13/afero"
)

// FileName is the lock manifest filename written by restore at the root of
// the restored output.
const FileName = "toolshed.lock.json"

var (
	// ErrNoTarget indicates the manifest has no resolved target.
	ErrNoTarget = errors.New("lock manifest has no resolved target")

	// ErrLibraryNotFound indicates no library entry matches the package id.
	ErrLibraryNotFound = errors.New("library not found in lock manifest")
)

// Lockfile is the parsed lock manifest.
type Lockfile struct {
	Version int      `json:"version"`
	Targets []Target `json:"targets"`
}

// Target is one resolved restore target.
type Target struct {
	// Framework identifies the target; restore leaves it empty for
	// placeholder targets that resolved nothing.
	Framework string    `json:"framework"`
	Libraries []Library `json:"libraries"`
}

// Library is one restored package within a target.
type Library struct {
	ID      string   `json:"id"`
	Version string   `json:"version"`
	Type    string   `json:"type"`
	// Files are slash-separated paths relative to the library's content
	// root inside the package directory.
	Files []string `json:"files"`
}

// Read parses the lock manifest at p.
func Read(fsys afero.Fs, p string) (*Lockfile, error) {
	data, err := afero.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("reading lock manifest %s: %w", p, err)
	}

	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing lock manifest %s: %w", p, err)
	}
	return &lf, nil
}

// Library returns the library entry for packageID from the first target
// that actually resolved (non-empty framework).
func (l *Lockfile) Library(packageID string) (*Library, error) {
	var target *Target
	for i := range l.Targets {
		if l.Targets[i].Framework != "" {
			target = &l.Targets[i]
			break
		}
	}
	if target == nil {
		return nil, ErrNoTarget
	}

	for i := range target.Libraries {
		if target.Libraries[i].ID == packageID {
			return &target.Libraries[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, packageID)
}

// FindFileByName returns the first file entry whose base name equals name.
func (lib *Library) FindFileByName(name string) (string, bool) {
	for _, f := range lib.Files {
		if path.Base(f) == name {
			return f, true
		}
	}
	return "", false
}

// HasFile reports whether the library lists the exact relative path rel.
func (lib *Library) HasFile(rel string) bool {
	for _, f := range lib.Files {
		if f == rel {
			return true
		}
	}
	return false
}
