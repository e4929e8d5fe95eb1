// SPDX-License-Identifier: MPL-2.0

// Package tool composes the package store, shim manager, and PATH notifier
// into the end-to-end operations the CLI exposes. Each operation runs
// inside a single transaction scope: the package publish and the shim
// publish commit or roll back together, so no observer ever finds a tool
// half installed.
package tool

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"toolshed-cli/internal/pathenv"
	"toolshed-cli/internal/shim"
	"toolshed-cli/internal/store"
	"toolshed-cli/internal/txn"
)

// Service wires the lifecycle collaborators. All fields must be set.
type Service struct {
	Store  *store.Store
	Shims  *shim.Manager
	Path   *pathenv.Notifier
	Logger *log.Logger
}

// InstallResult describes a completed install.
type InstallResult struct {
	PackageID   string
	Version     string
	CommandName string
	// ShimsDirOnPath reports whether the shims directory was found on
	// PATH after publishing. Advisory only.
	ShimsDirOnPath bool
}

// Installed describes one installed package for listings.
type Installed struct {
	PackageID   string
	Versions    []string
	CommandName string
}

// Install obtains and publishes a package, then publishes the shim for the
// command it declares, all within one transaction. Any failure — restore,
// validation, shim collision — rolls the filesystem back to its pre-call
// state.
func (s *Service) Install(ctx context.Context, req store.InstallRequest) (*InstallResult, error) {
	res := &InstallResult{PackageID: req.PackageID}

	err := txn.Run(func(tx *txn.Tx) error {
		version, err := s.Store.Install(ctx, tx, req)
		if err != nil {
			return err
		}
		res.Version = version

		cfg, err := s.Store.ToolConfiguration(req.PackageID, version)
		if err != nil {
			return err
		}
		res.CommandName = cfg.CommandName

		return s.Shims.Create(tx, cfg.ExecutablePath, cfg.CommandName)
	})
	if err != nil {
		return nil, err
	}

	// Advisory; never fails the install.
	res.ShimsDirOnPath = s.Path.NotifyIfMissing(s.Shims.Dir())
	return res, nil
}

// Uninstall removes one installed version (or every installed version when
// version is empty) together with the shim its manifest declares. Shim and
// package removal share a transaction per version.
func (s *Service) Uninstall(id, version string) error {
	versions := []string{version}
	if version == "" {
		installed, err := s.Store.InstalledVersions(id)
		if err != nil {
			return err
		}
		if len(installed) == 0 {
			return fmt.Errorf("%w: %s", store.ErrNotInstalled, id)
		}
		versions = installed
	}

	for _, v := range versions {
		if err := s.uninstallOne(id, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) uninstallOne(id, version string) error {
	// The command name comes from the package being removed. A package
	// whose configuration cannot be read anymore is still uninstallable;
	// its shim is left for manual cleanup.
	commandName := ""
	if cfg, err := s.Store.ToolConfiguration(id, version); err == nil {
		commandName = cfg.CommandName
	} else {
		s.Logger.Warn("cannot read tool configuration; leaving any shim in place",
			"id", id, "version", version, "err", err)
	}

	return txn.Run(func(tx *txn.Tx) error {
		if commandName != "" {
			if err := s.Shims.Remove(tx, commandName); err != nil {
				return err
			}
		}
		return s.Store.Uninstall(tx, id, version)
	})
}

// List enumerates installed packages with their versions and, when
// readable, the command each provides.
func (s *Service) List() ([]Installed, error) {
	ids, err := s.Store.PackageIDs()
	if err != nil {
		return nil, err
	}

	out := make([]Installed, 0, len(ids))
	for _, id := range ids {
		versions, err := s.Store.InstalledVersions(id)
		if err != nil {
			return nil, err
		}
		if len(versions) == 0 {
			continue
		}

		item := Installed{PackageID: id, Versions: versions}
		// Report the command of the newest version.
		if cfg, err := s.Store.ToolConfiguration(id, versions[len(versions)-1]); err == nil {
			item.CommandName = cfg.CommandName
		}
		out = append(out, item)
	}
	return out, nil
}
