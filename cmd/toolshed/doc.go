// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for toolshed.
//
// This package implements the Cobra command hierarchy for the toolshed
// CLI: the root command plus subcommands for installing, uninstalling, and
// listing tool packages. Command handlers stay thin and delegate the
// lifecycle work to the tool.Service composition in internal/tool.
package cmd
