// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"toolshed-cli/internal/restore"
	"toolshed-cli/internal/txn"
)

// InstallRequest carries the inputs for one package install.
type InstallRequest struct {
	// PackageID is the package to install. Required.
	PackageID string
	// Version pins the version to install; empty requests the latest.
	Version string
	// TargetFramework overrides the store's default framework for the
	// project descriptor.
	TargetFramework string
	// TempProjectPath overrides where the project descriptor is written.
	// Its extension is forced to the one the restore command requires.
	TempProjectPath string
	// ConfigFile optionally points at a feed configuration file. It must
	// exist when given.
	ConfigFile string
	// OfflineFeed optionally points at a local directory feed consulted
	// before any remote source.
	OfflineFeed string
	// Source optionally overrides the package source/feed.
	Source string
	// Verbosity optionally sets restore verbosity.
	Verbosity string
}

// Install obtains a package via the external restore step, stages it under
// root/.stage/<random>, and publishes it to root/<id>/<version> with a
// rename. The resolved version is returned.
//
// The rollback enlisted into tx removes whatever the install created: the
// staging slot before publish, the published directory after it, and the
// package root when the install brought it into existence. Validation
// failures happen before anything is enlisted or touched.
func (s *Store) Install(ctx context.Context, tx *txn.Tx, req InstallRequest) (string, error) {
	if err := validateComponent("package id", req.PackageID); err != nil {
		return "", err
	}
	if req.Version != "" {
		if err := validateComponent("package version", req.Version); err != nil {
			return "", err
		}
	}

	configFile := req.ConfigFile
	if configFile != "" {
		abs, err := filepath.Abs(configFile)
		if err == nil {
			configFile = abs
		}
		exists, err := afero.Exists(s.fs, configFile)
		if err != nil {
			return "", &PackageError{Op: "install", PackageID: req.PackageID, Err: err}
		}
		if !exists {
			return "", &ObtainError{
				PackageID: req.PackageID,
				Err:       fmt.Errorf("configuration file %s does not exist", configFile),
			}
		}
	}

	// Mutation phase. Everything below must be preceded by the rollback
	// enlistment so an abort restores the pre-call state.
	rootDir := filepath.Join(s.root, req.PackageID)
	stageDir := filepath.Join(s.stageRoot(), s.stageName())

	projectFile := req.TempProjectPath
	ownProjectFile := projectFile == ""
	if ownProjectFile {
		projectFile = filepath.Join(s.stageRoot(), s.stageName())
	}
	projectFile = forceExt(projectFile, restore.ProjectFileExt)

	// rollbackTarget starts at the staging slot and is retargeted to the
	// final directory once the publish rename succeeds, so a later failure
	// in the same transaction still cleans up the published tree.
	rollbackTarget := stageDir
	if err := tx.Enlist(nil, func() {
		_ = s.fs.RemoveAll(rollbackTarget)
		if ownProjectFile {
			_ = s.fs.Remove(projectFile)
		}
		s.removeIfEmpty(rootDir)
		s.removeIfEmpty(s.stageRoot())
	}); err != nil {
		return "", err
	}

	if err := s.fs.MkdirAll(stageDir, 0o755); err != nil {
		return "", &PackageError{Op: "install", PackageID: req.PackageID, Err: err}
	}

	version := req.Version
	if version == "" {
		// Latest-version wildcard; resolution happens in restore.
		version = "*"
	}
	framework := req.TargetFramework
	if framework == "" {
		framework = s.framework
	}

	project := restore.Project{
		TargetFramework: framework,
		Package:         restore.ProjectPackage{ID: req.PackageID, Version: version},
		OutputPath:      stageDir,
	}
	if err := restore.WriteProject(s.fs, projectFile, project); err != nil {
		return "", &PackageError{Op: "install", PackageID: req.PackageID, Err: err}
	}

	s.logger.Debug("restoring package", "id", req.PackageID, "version", version, "stage", stageDir)

	if err := s.invoker.Restore(ctx, restore.Request{
		ProjectFile: projectFile,
		OutputDir:   stageDir,
		ConfigFile:  configFile,
		OfflineFeed: req.OfflineFeed,
		Source:      req.Source,
		Verbosity:   req.Verbosity,
	}); err != nil {
		return "", &ObtainError{PackageID: req.PackageID, Err: err}
	}

	resolved, err := s.readResolvedVersion(stageDir, req.PackageID)
	if err != nil {
		return "", err
	}

	finalDir := filepath.Join(rootDir, resolved)
	installed, err := afero.DirExists(s.fs, finalDir)
	if err != nil {
		return "", &PackageError{Op: "install", PackageID: req.PackageID, Err: err}
	}
	if installed {
		return "", fmt.Errorf("%w: %s %s", ErrAlreadyInstalled, req.PackageID, resolved)
	}

	if err := s.fs.MkdirAll(rootDir, 0o755); err != nil {
		return "", &PackageError{Op: "install", PackageID: req.PackageID, Err: err}
	}
	if err := s.fs.Rename(stageDir, finalDir); err != nil {
		return "", &PackageError{Op: "install", PackageID: req.PackageID, Err: err}
	}
	// Publish succeeded; from here on rollback must undo the final
	// location, not the vacated staging slot.
	rollbackTarget = finalDir

	if ownProjectFile {
		_ = s.fs.Remove(projectFile)
		s.removeIfEmpty(s.stageRoot())
	}

	s.logger.Info("installed package", "id", req.PackageID, "version", resolved)
	return resolved, nil
}

// readResolvedVersion reads back the version restore actually materialized:
// the single subdirectory under <stageDir>/<id>/.
func (s *Store) readResolvedVersion(stageDir, id string) (string, error) {
	idDir := filepath.Join(stageDir, id)
	entries, err := afero.ReadDir(s.fs, idDir)
	if err != nil {
		return "", &ObtainError{
			PackageID: id,
			Err:       fmt.Errorf("restore output has no %s directory: %w", id, err),
		}
	}

	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	if len(versions) != 1 {
		return "", &ObtainError{
			PackageID: id,
			Err:       fmt.Errorf("restore produced %d version directories under %s, want exactly 1", len(versions), idDir),
		}
	}
	return versions[0], nil
}

// forceExt replaces path's extension with ext.
func forceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
