// SPDX-License-Identifier: MPL-2.0

// Package store manages the on-disk layout of installed tool packages.
// Packages live under a single root as root/<packageId>/<version>/; a
// version directory existing is the one and only signal that the version is
// installed. Installs stage into root/.stage/<random> and publish with a
// rename, uninstalls move aside before deleting, and both enlist their
// compensations into the caller's transaction so a failed operation leaves
// the root exactly as it was.
package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/mod/semver"

	"toolshed-cli/internal/platform"
	"toolshed-cli/internal/restore"
)

const (
	// stageDirName is the transient staging area under the store root.
	stageDirName = ".stage"

	// defaultTargetFramework is used for project descriptors when the
	// caller does not override it.
	defaultTargetFramework = "net8.0"
)

var (
	// ErrInvalidArgument indicates a caller contract violation, such as an
	// empty or path-unsafe package id.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyInstalled indicates the target package version directory
	// already exists.
	ErrAlreadyInstalled = errors.New("package already installed")

	// ErrNotInstalled indicates the requested package version directory
	// does not exist.
	ErrNotInstalled = errors.New("package not installed")
)

// ObtainError reports that the external restore step failed or produced a
// result the store could not interpret.
type ObtainError struct {
	PackageID string
	Err       error
}

// Error implements the error interface.
func (e *ObtainError) Error() string {
	return fmt.Sprintf("obtaining package %s: %v", e.PackageID, e.Err)
}

// Unwrap returns the underlying error.
func (e *ObtainError) Unwrap() error { return e.Err }

// PackageError wraps a lower-level fault with the operation and package it
// occurred in. Raw I/O errors never cross the store boundary undecorated.
type PackageError struct {
	Op        string
	PackageID string
	Err       error
}

// Error implements the error interface.
func (e *PackageError) Error() string {
	return fmt.Sprintf("failed to %s package %s: %v", e.Op, e.PackageID, e.Err)
}

// Unwrap returns the underlying error.
func (e *PackageError) Unwrap() error { return e.Err }

// Store provides transactional install and uninstall of tool packages under
// a root directory. The filesystem is injected so tests run against an
// in-memory backend.
type Store struct {
	fs      afero.Fs
	root    string
	invoker restore.Invoker
	logger  *log.Logger

	framework string
	// stageName generates unique staging slot names. Collision avoidance
	// is probabilistic; no lock is taken (accepted limitation).
	stageName func() string
}

// Option configures a Store during construction.
type Option func(*Store)

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithTargetFramework overrides the default target framework written into
// project descriptors.
func WithTargetFramework(tfm string) Option {
	return func(s *Store) { s.framework = tfm }
}

// New creates a Store rooted at root. The invoker runs the external restore
// step during Install; a Store used only for queries and uninstalls may pass
// nil.
func New(fsys afero.Fs, root string, invoker restore.Invoker, opts ...Option) *Store {
	s := &Store{
		fs:        fsys,
		root:      root,
		invoker:   invoker,
		logger:    log.Default(),
		framework: defaultTargetFramework,
		stageName: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the store root directory.
func (s *Store) Root() string { return s.root }

// PackageRootDir returns the directory holding every installed version of
// id. Pure path computation.
func (s *Store) PackageRootDir(id string) (string, error) {
	if err := validateComponent("package id", id); err != nil {
		return "", err
	}
	return filepath.Join(s.root, id), nil
}

// PackageDir returns the directory for one installed version of id.
// Pure path computation.
func (s *Store) PackageDir(id, version string) (string, error) {
	if err := validateComponent("package id", id); err != nil {
		return "", err
	}
	if err := validateComponent("package version", version); err != nil {
		return "", err
	}
	return filepath.Join(s.root, id, version), nil
}

// InstalledVersions enumerates the installed versions of id, ordered oldest
// to newest (semver-aware, lexical for non-semver names). A package root
// that does not exist yields an empty slice, not an error.
func (s *Store) InstalledVersions(id string) ([]string, error) {
	rootDir, err := s.PackageRootDir(id)
	if err != nil {
		return nil, err
	}

	exists, err := afero.DirExists(s.fs, rootDir)
	if err != nil {
		return nil, &PackageError{Op: "enumerate", PackageID: id, Err: err}
	}
	if !exists {
		return nil, nil
	}

	entries, err := afero.ReadDir(s.fs, rootDir)
	if err != nil {
		return nil, &PackageError{Op: "enumerate", PackageID: id, Err: err}
	}

	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	slices.SortFunc(versions, compareVersions)
	return versions, nil
}

// IsInstalled reports whether id at version is installed.
func (s *Store) IsInstalled(id, version string) (bool, error) {
	dir, err := s.PackageDir(id, version)
	if err != nil {
		return false, err
	}
	ok, err := afero.DirExists(s.fs, dir)
	if err != nil {
		return false, &PackageError{Op: "query", PackageID: id, Err: err}
	}
	return ok, nil
}

// PackageIDs enumerates every package id present in the store, sorted.
// Transient entries (the staging area) are skipped.
func (s *Store) PackageIDs() ([]string, error) {
	exists, err := afero.DirExists(s.fs, s.root)
	if err != nil || !exists {
		return nil, err
	}

	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return nil, fmt.Errorf("enumerating store root %s: %w", s.root, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			ids = append(ids, e.Name())
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// stageRoot returns the staging area directory.
func (s *Store) stageRoot() string {
	return filepath.Join(s.root, stageDirName)
}

// removeIfEmpty deletes dir when it exists and has no entries. Used to
// restore "root absent" as part of rollback and after uninstalls.
func (s *Store) removeIfEmpty(dir string) {
	exists, err := afero.DirExists(s.fs, dir)
	if err != nil || !exists {
		return
	}
	empty, err := afero.IsEmpty(s.fs, dir)
	if err != nil || !empty {
		return
	}
	_ = s.fs.Remove(dir)
}

// validateComponent checks that s is usable as a single directory-name
// component under the store root.
func validateComponent(kind, s string) error {
	if s == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidArgument, kind)
	}
	if !platform.IsValidFileName(s) {
		return fmt.Errorf("%w: %s %q must not contain path separators or other filename-invalid characters", ErrInvalidArgument, kind, s)
	}
	// Dot-prefixed names are reserved for the store's own transient
	// entries (the staging area), and "."/".." would escape the layout.
	if strings.HasPrefix(s, ".") {
		return fmt.Errorf("%w: %s %q must not start with a dot", ErrInvalidArgument, kind, s)
	}
	return nil
}

// compareVersions orders semver strings semantically and everything else
// lexically after them.
func compareVersions(a, b string) int {
	va, vb := "v"+a, "v"+b
	switch {
	case semver.IsValid(va) && semver.IsValid(vb):
		return semver.Compare(va, vb)
	case semver.IsValid(va):
		return -1
	case semver.IsValid(vb):
		return 1
	default:
		return strings.Compare(a, b)
	}
}
