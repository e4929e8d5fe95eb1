// SPDX-License-Identifier: MPL-2.0

package shim

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/spf13/afero"
)

// launcherConfigTemplate is the bundled template for the shim's sibling
// configuration file. The launcher binary reads entryPoint and runner from
// it at startup.
//
//go:embed assets/launcher.exe.config.tmpl
var launcherConfigTemplate string

var configTmpl = template.Must(template.New("launcher.exe.config").Parse(launcherConfigTemplate))

// publishWindows writes the <name>.exe.config configuration file and copies
// the bundled generic launcher binary to <name>.exe. The config is written
// first so the rollback's whole-set delete covers every partial outcome.
func (m *Manager) publishWindows(target, commandName string) error {
	var buf bytes.Buffer
	err := configTmpl.Execute(&buf, struct {
		EntryPoint string
		Runner     string
	}{EntryPoint: target, Runner: m.runner})
	if err != nil {
		return &Error{CommandName: commandName, Err: fmt.Errorf("failed to create shim: %w", err)}
	}

	configPath := filepath.Join(m.dir, commandName+".exe.config")
	if err := afero.WriteFile(m.fs, configPath, buf.Bytes(), 0o644); err != nil {
		return &Error{CommandName: commandName, Err: fmt.Errorf("failed to create shim: %w", err)}
	}

	launcherSrc, err := m.resolveLauncherPath()
	if err != nil {
		return &Error{CommandName: commandName, Err: fmt.Errorf("failed to create shim: %w", err)}
	}
	launcher, err := afero.ReadFile(m.fs, launcherSrc)
	if err != nil {
		return &Error{CommandName: commandName, Err: fmt.Errorf("failed to create shim: %w", err)}
	}

	exePath := filepath.Join(m.dir, commandName+".exe")
	if err := afero.WriteFile(m.fs, exePath, launcher, 0o755); err != nil {
		return &Error{CommandName: commandName, Err: fmt.Errorf("failed to create shim: %w", err)}
	}
	return nil
}
