// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"toolshed-cli/internal/shim"
	"toolshed-cli/internal/store"
)

var (
	installVersion     string
	installFramework   string
	installConfigFile  string
	installOfflineFeed string
	installSource      string
	installVerbosity   string

	installCmd = &cobra.Command{
		Use:   "install <package-id>",
		Short: "Install a tool package and publish its shim",
		Long: `Install downloads a tool package into the local store and publishes a
launcher shim named after the command the package declares.

The install is transactional: if the download, the package validation, or
the shim publish fails, everything already done is rolled back and the
store is left exactly as it was.`,
		Args: cobra.ExactArgs(1),
		RunE: runInstall,
	}
)

func init() {
	installCmd.Flags().StringVarP(&installVersion, "version", "v", "", "version to install (default: latest)")
	installCmd.Flags().StringVar(&installFramework, "framework", "", "target framework for the restore step")
	installCmd.Flags().StringVar(&installConfigFile, "config-file", "", "feed configuration file passed to the restore step")
	installCmd.Flags().StringVar(&installOfflineFeed, "offline-feed", "", "local directory feed consulted before any remote source")
	installCmd.Flags().StringVar(&installSource, "source", "", "package source/feed override")
	installCmd.Flags().StringVar(&installVerbosity, "verbosity", "", "restore verbosity level")
}

func runInstall(cmd *cobra.Command, args []string) error {
	svc, _, err := newService()
	if err != nil {
		return err
	}

	res, err := svc.Install(cmd.Context(), store.InstallRequest{
		PackageID:       args[0],
		Version:         installVersion,
		TargetFramework: installFramework,
		ConfigFile:      installConfigFile,
		OfflineFeed:     installOfflineFeed,
		Source:          installSource,
		Verbosity:       installVerbosity,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyInstalled):
			return fmt.Errorf("%s is already installed: %w", args[0], err)
		case errors.Is(err, shim.ErrShimExists):
			return fmt.Errorf("cannot install %s: %w", args[0], err)
		}
		return err
	}

	cmd.Println(SuccessStyle.Render(fmt.Sprintf("Installed %s %s (command: %s)", res.PackageID, res.Version, res.CommandName)))
	if !res.ShimsDirOnPath {
		cmd.Println(WarningStyle.Render(fmt.Sprintf("Note: %s is not on your PATH", svc.Shims.Dir())))
	}
	return nil
}
