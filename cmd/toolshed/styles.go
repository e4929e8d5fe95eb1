// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Styles shared across command output.
var (
	// TitleStyle renders the application name in help text.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

	// SubtitleStyle renders section headings in help text.
	SubtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))

	// SuccessStyle renders success confirmation lines.
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	// WarningStyle renders non-fatal warnings.
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)
