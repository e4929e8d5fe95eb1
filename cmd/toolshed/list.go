// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed tool packages",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	svc, _, err := newService()
	if err != nil {
		return err
	}

	installed, err := svc.List()
	if err != nil {
		return err
	}
	if len(installed) == 0 {
		cmd.Println("No tool packages installed.")
		return nil
	}

	cmd.Println(SubtitleStyle.Render("Installed tool packages:"))
	for _, pkg := range installed {
		line := "  " + pkg.PackageID + " " + strings.Join(pkg.Versions, ", ")
		if pkg.CommandName != "" {
			line += " (command: " + pkg.CommandName + ")"
		}
		cmd.Println(line)
	}
	return nil
}
