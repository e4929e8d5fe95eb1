// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
package platform

import "strings"

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// windowsReservedNames are filenames that cannot be used on Windows.
// These names are reserved by the operating system regardless of file extension.
var windowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// invalidFileNameChars are characters rejected in filenames on at least one
// supported platform. The union is enforced everywhere so that a command
// name valid on the machine that created it stays valid on every other.
const invalidFileNameChars = `<>:"/\|?*`

// IsWindowsReservedName checks if a filename is a Windows reserved name.
// It handles filenames with extensions by checking just the base name portion.
func IsWindowsReservedName(name string) bool {
	upper := strings.ToUpper(name)
	if idx := strings.LastIndex(upper, "."); idx != -1 {
		upper = upper[:idx]
	}
	return windowsReservedNames[upper]
}

// IsValidFileName reports whether name can be used as a plain filename on
// every supported platform: non-empty, no path separators or other
// filename-invalid characters, no control characters, and not a Windows
// reserved name.
func IsValidFileName(name string) bool {
	if name == "" {
		return false
	}
	if strings.ContainsAny(name, invalidFileNameChars) {
		return false
	}
	for _, r := range name {
		if r < 0x20 {
			return false
		}
	}
	return !IsWindowsReservedName(name)
}
