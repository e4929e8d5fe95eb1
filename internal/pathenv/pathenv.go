// SPDX-License-Identifier: MPL-2.0

// Package pathenv checks whether the shims directory is reachable through
// the user's executable search path and, when it is not, tells the user how
// to fix that. The check is advisory only; it never fails an operation.
package pathenv

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"toolshed-cli/internal/platform"
)

// Notifier reports a missing shims directory on PATH.
type Notifier struct {
	logger *log.Logger
	goos   string
	getenv func(string) string
}

// Option configures a Notifier during construction.
type Option func(*Notifier)

// WithGOOS overrides the platform family. Test seam.
func WithGOOS(goos string) Option {
	return func(n *Notifier) { n.goos = goos }
}

// WithGetenv overrides environment lookup. Test seam.
func WithGetenv(fn func(string) string) Option {
	return func(n *Notifier) { n.getenv = fn }
}

// New creates a Notifier logging through logger.
func New(logger *log.Logger, opts ...Option) *Notifier {
	if logger == nil {
		logger = log.Default()
	}
	n := &Notifier{
		logger: logger,
		goos:   runtime.GOOS,
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// OnPath reports whether dir appears in the PATH environment variable.
// Comparison is case-insensitive on Windows.
func (n *Notifier) OnPath(dir string) bool {
	want := filepath.Clean(dir)
	for _, entry := range filepath.SplitList(n.getenv("PATH")) {
		if entry == "" {
			continue
		}
		got := filepath.Clean(entry)
		if got == want {
			return true
		}
		if n.goos == platform.Windows && strings.EqualFold(got, want) {
			return true
		}
	}
	return false
}

// NotifyIfMissing logs a warning with platform-appropriate guidance when
// dir is not on PATH. Returns whether the directory was found.
func (n *Notifier) NotifyIfMissing(dir string) bool {
	if n.OnPath(dir) {
		return true
	}

	if n.goos == platform.Windows {
		n.logger.Warn("shims directory is not on PATH",
			"dir", dir,
			"hint", `run: setx PATH "%PATH%;`+dir+`"`)
	} else {
		n.logger.Warn("shims directory is not on PATH",
			"dir", dir,
			"hint", `add 'export PATH="$PATH:`+dir+`"' to your shell profile`)
	}
	return false
}
