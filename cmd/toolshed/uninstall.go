// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"toolshed-cli/internal/store"
)

var (
	uninstallVersion string

	uninstallCmd = &cobra.Command{
		Use:   "uninstall <package-id>",
		Short: "Remove a tool package and its shim",
		Long: `Uninstall removes an installed tool package from the local store along
with the launcher shim for its command. Without --version every installed
version of the package is removed.

Each removal is transactional: a failure part-way restores both the
package directory and the shim.`,
		Args: cobra.ExactArgs(1),
		RunE: runUninstall,
	}
)

func init() {
	uninstallCmd.Flags().StringVarP(&uninstallVersion, "version", "v", "", "version to uninstall (default: all versions)")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	svc, _, err := newService()
	if err != nil {
		return err
	}

	if err := svc.Uninstall(args[0], uninstallVersion); err != nil {
		if errors.Is(err, store.ErrNotInstalled) {
			return fmt.Errorf("%s is not installed: %w", args[0], err)
		}
		return err
	}

	if uninstallVersion != "" {
		cmd.Println(SuccessStyle.Render(fmt.Sprintf("Uninstalled %s %s", args[0], uninstallVersion)))
	} else {
		cmd.Println(SuccessStyle.Render(fmt.Sprintf("Uninstalled %s", args[0])))
	}
	return nil
}
