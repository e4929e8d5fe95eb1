// SPDX-License-Identifier: MPL-2.0

package store

import (
	"path/filepath"

	"github.com/spf13/afero"

	"toolshed-cli/internal/txn"
)

// Uninstall removes an installed package version. The version directory is
// moved aside into the staging area first; only the transaction outcome
// decides its fate. Commit deletes the moved-aside copy, rollback moves it
// back (recreating the package root if needed). Both compensations are
// enlisted before anything is touched.
//
// Uninstalling a version that is not installed is a no-op, not an error.
func (s *Store) Uninstall(tx *txn.Tx, id, version string) error {
	pkgDir, err := s.PackageDir(id, version)
	if err != nil {
		return err
	}
	rootDir := filepath.Dir(pkgDir)
	asidePath := filepath.Join(s.stageRoot(), ".rm-"+s.stageName())

	moved := false
	if err := tx.Enlist(
		func() {
			if moved {
				_ = s.fs.RemoveAll(asidePath)
			}
			s.removeIfEmpty(s.stageRoot())
		},
		func() {
			if moved {
				_ = s.fs.MkdirAll(rootDir, 0o755)
				_ = s.fs.Rename(asidePath, pkgDir)
			}
			s.removeIfEmpty(s.stageRoot())
		},
	); err != nil {
		return err
	}

	exists, err := afero.DirExists(s.fs, pkgDir)
	if err != nil {
		return &PackageError{Op: "uninstall", PackageID: id, Err: err}
	}
	if exists {
		if err := s.fs.MkdirAll(s.stageRoot(), 0o755); err != nil {
			return &PackageError{Op: "uninstall", PackageID: id, Err: err}
		}
		if err := s.fs.Rename(pkgDir, asidePath); err != nil {
			return &PackageError{Op: "uninstall", PackageID: id, Err: err}
		}
		moved = true
	}

	s.removeIfEmpty(rootDir)

	s.logger.Info("uninstalled package", "id", id, "version", version)
	return nil
}
