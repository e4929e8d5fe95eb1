// SPDX-License-Identifier: MPL-2.0

// Package shim creates and removes the per-command launcher files that make
// installed tools invokable by name. On POSIX platforms a shim is a single
// shell script; on Windows it is a launcher binary plus a sibling
// configuration file. A shim exists only when every platform-required file
// exists — the manager never leaves a partial file set behind once the
// enclosing transaction resolves.
package shim

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"toolshed-cli/internal/platform"
	"toolshed-cli/internal/txn"
)

// ErrShimExists indicates a shim for the command name is already published.
var ErrShimExists = errors.New("shim already exists")

// Error wraps a shim create/remove failure with the command it concerns.
type Error struct {
	CommandName string
	Err         error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("shim %q: %v", e.CommandName, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Manager publishes launcher shims into a single shims directory it
// exclusively owns. The filesystem is injected so tests run in memory; the
// platform family is selectable for the same reason.
type Manager struct {
	fs     afero.Fs
	dir    string
	runner string
	goos   string
	logger *log.Logger

	// launcherPath is where the bundled Windows launcher binary is copied
	// from. Empty means "next to the running executable".
	launcherPath string
	tempName     func() string
}

// Option configures a Manager during construction.
type Option func(*Manager)

// WithRunner overrides the runner token written into shims.
func WithRunner(runner string) Option {
	return func(m *Manager) { m.runner = runner }
}

// WithGOOS overrides the platform family. Test seam.
func WithGOOS(goos string) Option {
	return func(m *Manager) { m.goos = goos }
}

// WithLauncherPath overrides where the Windows launcher binary is sourced.
func WithLauncherPath(path string) Option {
	return func(m *Manager) { m.launcherPath = path }
}

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// New creates a Manager publishing into dir.
func New(fsys afero.Fs, dir string, opts ...Option) *Manager {
	m := &Manager{
		fs:       fsys,
		dir:      dir,
		runner:   "dotnet",
		goos:     runtime.GOOS,
		logger:   log.Default(),
		tempName: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the shims directory.
func (m *Manager) Dir() string { return m.dir }

// files returns every file the platform requires for commandName, in the
// order they are published.
func (m *Manager) files(commandName string) []string {
	if m.goos == platform.Windows {
		return []string{
			filepath.Join(m.dir, commandName+".exe.config"),
			filepath.Join(m.dir, commandName+".exe"),
		}
	}
	return []string{filepath.Join(m.dir, commandName)}
}

// Exists reports whether every platform-required file for commandName
// exists. A partial set reports false; Create treats that as absent and its
// rollback deletes whichever files it finds.
func (m *Manager) Exists(commandName string) (bool, error) {
	for _, f := range m.files(commandName) {
		ok, err := afero.Exists(m.fs, f)
		if err != nil {
			return false, &Error{CommandName: commandName, Err: err}
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Create publishes a shim for commandName pointing at targetExecutablePath.
// Uniqueness of command names within the shims directory is enforced here.
// The rollback enlisted into tx deletes every platform file for the name,
// so an aborted transaction returns the name to the absent state.
func (m *Manager) Create(tx *txn.Tx, targetExecutablePath, commandName string) error {
	if targetExecutablePath == "" {
		return &Error{CommandName: commandName, Err: errors.New("target executable path must not be empty")}
	}
	if commandName == "" {
		return &Error{CommandName: commandName, Err: errors.New("command name must not be empty")}
	}

	exists, err := m.Exists(commandName)
	if err != nil {
		return err
	}
	if exists {
		return &Error{CommandName: commandName, Err: ErrShimExists}
	}

	if err := m.fs.MkdirAll(m.dir, 0o755); err != nil {
		return &Error{CommandName: commandName, Err: fmt.Errorf("failed to create shim: %w", err)}
	}

	files := m.files(commandName)
	if err := tx.Enlist(nil, func() {
		for _, f := range files {
			_ = m.fs.Remove(f)
		}
	}); err != nil {
		return err
	}

	if m.goos == platform.Windows {
		err = m.publishWindows(targetExecutablePath, commandName)
	} else {
		err = m.publishPosix(targetExecutablePath, commandName)
	}
	if err != nil {
		return err
	}

	m.logger.Debug("created shim", "command", commandName, "target", targetExecutablePath)
	return nil
}

// Remove unpublishes the shim for commandName. Each present file is moved
// aside under a unique temporary name first; commit deletes the moved
// copies, rollback renames them back. Both compensations are enlisted
// before any move happens.
func (m *Manager) Remove(tx *txn.Tx, commandName string) error {
	type move struct {
		from, to string
	}
	var moved []move

	if err := tx.Enlist(
		func() {
			for _, mv := range moved {
				_ = m.fs.Remove(mv.to)
			}
		},
		func() {
			for i := len(moved) - 1; i >= 0; i-- {
				_ = m.fs.Rename(moved[i].to, moved[i].from)
			}
		},
	); err != nil {
		return err
	}

	for _, f := range m.files(commandName) {
		ok, err := afero.Exists(m.fs, f)
		if err != nil {
			return &Error{CommandName: commandName, Err: fmt.Errorf("failed to remove shim: %w", err)}
		}
		if !ok {
			continue
		}
		aside := filepath.Join(m.dir, ".rm-"+m.tempName()+"-"+filepath.Base(f))
		if err := m.fs.Rename(f, aside); err != nil {
			return &Error{CommandName: commandName, Err: fmt.Errorf("failed to remove shim: %w", err)}
		}
		moved = append(moved, move{from: f, to: aside})
	}

	m.logger.Debug("removed shim", "command", commandName)
	return nil
}

// resolveLauncherPath returns where the bundled launcher binary lives:
// either the configured override or launcher.exe next to the running
// executable.
func (m *Manager) resolveLauncherPath() (string, error) {
	if m.launcherPath != "" {
		return m.launcherPath, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating bundled launcher: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), "launcher.exe"), nil
}
