// SPDX-License-Identifier: MPL-2.0

package shim

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// publishPosix writes the shell-script shim and marks it executable. The
// script body is part of the on-disk contract:
//
//	#!/bin/sh
//	<runner> "<target>" "$@"
func (m *Manager) publishPosix(target, commandName string) error {
	script := fmt.Sprintf("#!/bin/sh\n%s \"%s\" \"$@\"\n", m.runner, target)
	path := filepath.Join(m.dir, commandName)

	if err := afero.WriteFile(m.fs, path, []byte(script), 0o644); err != nil {
		return &Error{CommandName: commandName, Err: fmt.Errorf("failed to create shim: %w", err)}
	}

	info, err := m.fs.Stat(path)
	if err != nil {
		return &Error{CommandName: commandName, Err: fmt.Errorf("failed setting shim permissions: %w", err)}
	}
	if err := m.fs.Chmod(path, info.Mode()|fs.FileMode(0o100)); err != nil {
		return &Error{CommandName: commandName, Err: fmt.Errorf("failed setting shim permissions: %w", err)}
	}
	return nil
}
